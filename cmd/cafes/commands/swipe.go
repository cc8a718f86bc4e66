package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"cafe_finder/internal/adapters/cafeapi"
	"cafe_finder/internal/adapters/geo"
	"cafe_finder/internal/app"
	"cafe_finder/internal/domain"
	"cafe_finder/internal/ui"
)

func swipeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "swipe",
		Short: "Open the swipe deck (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSwipe(cmd)
		},
	}
}

func runSwipe(cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	l := componentLogger("swipe")
	if _, err := list.Load(ctx); err != nil {
		// the session still works with an in-memory list
		l.Warn().Err(err).Msg("saved list unavailable")
	}

	proxy := cafeapi.New(cfg.ProxyBase, &http.Client{Timeout: 20 * time.Second})

	var src domain.DataSource
	if cfg.UseSeedData {
		src = app.SeedSource{Delay: cfg.SeedDelay}
	} else {
		loc, err := geo.FromConfig(cfg.Lat, cfg.Lng, cfg.GeoIPURL)
		if err != nil {
			return err
		}
		src = app.RemoteSource{Locator: loc, Client: proxy}
	}
	l.Info().Bool("seed", cfg.UseSeedData).Str("backend", backend.Name).Msg("starting deck")

	ctrl := app.NewController(src, list, componentLogger("controller"))
	model := ui.New(ctx, ctrl, ui.Options{
		SettleDelay:   cfg.SettleDelay,
		PixelsPerCell: cfg.PixelsPerCell,
		PhotoWorkers:  cfg.PhotoWorkers,
		Images:        proxy,
		Log:           componentLogger("ui"),
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithReportFocus(), tea.WithContext(ctx))
	_, err := p.Run()
	ctrl.Close()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
