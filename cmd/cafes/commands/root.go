package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"cafe_finder/internal/adapters/observability"
	"cafe_finder/internal/saved"
	"cafe_finder/internal/shared"
	"cafe_finder/internal/storage"
)

var (
	cfg     shared.Config
	logOut  io.Closer
	backend *storage.Backend
	list    *saved.Store

	flagBackend string
	flagProxy   string
	flagLive    bool
	flagSeed    bool
	flagMetrics string
)

func Execute() error {
	root := &cobra.Command{
		Use:          "cafes",
		Short:        "Swipe through nearby cafes and keep the ones you like",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = shared.Load()
			if flagBackend != "" {
				cfg.StoreBackend = flagBackend
			}
			if flagProxy != "" {
				cfg.ProxyBase = flagProxy
			}
			if flagLive {
				cfg.UseSeedData = false
			}
			if flagSeed {
				cfg.UseSeedData = true
			}
			if flagMetrics != "" {
				cfg.MetricsAddr = flagMetrics
			}

			// stdout belongs to the UI; logs go to a file
			if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
				return err
			}
			f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			logOut = f
			log.Logger = observability.NewLogger(cfg.AppEnv, f)

			// swipe and record counters; off unless an address is set
			observability.Serve(cfg.MetricsAddr, observability.InitRegistry())

			b, err := storage.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			backend = b
			list = saved.New(b.Records, cfg.SavedRecord, b.Name, log.Logger.With().Str("component", "saved").Logger())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSwipe(cmd)
		},
	}

	root.PersistentFlags().StringVar(&flagBackend, "backend", "", "saved-list backend: sqlite|redis|mysql|postgres")
	root.PersistentFlags().StringVar(&flagProxy, "proxy", "", "cafe proxy base URL (default http://localhost:8080)")
	root.PersistentFlags().BoolVar(&flagLive, "live", false, "fetch nearby cafes through the proxy")
	root.PersistentFlags().BoolVar(&flagSeed, "seed", false, "use the built-in demo cafes")
	root.PersistentFlags().StringVar(&flagMetrics, "metrics-addr", "", "serve /metrics on this address (off when empty)")
	root.MarkFlagsMutuallyExclusive("live", "seed")

	root.AddCommand(swipeCmd(), savedCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := root.ExecuteContext(ctx)
	if cerr := closeAll(); err == nil {
		err = cerr
	}
	return err
}

func closeAll() error {
	var first error
	if backend != nil {
		first = backend.Close()
		backend = nil
	}
	if logOut != nil {
		_ = logOut.Close()
		logOut = nil
	}
	return first
}

func componentLogger(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}
