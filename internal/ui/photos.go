package ui

import (
	"context"
	"image"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/qeesung/image2ascii/convert"
	"golang.org/x/sync/semaphore"

	"cafe_finder/internal/domain"
)

// PrefetchDepth is how many cards from the top get their photo loaded.
const PrefetchDepth = 3

// ImageFetcher downloads and decodes the photo behind a PhotoRef.
type ImageFetcher interface {
	FetchImage(ctx context.Context, ref string) (image.Image, error)
}

// photoLoader turns card photos into ASCII art, at most `workers` at a time.
type photoLoader struct {
	fetch  ImageFetcher
	sem    *semaphore.Weighted
	width  int
	height int
}

func newPhotoLoader(f ImageFetcher, workers, width, height int) *photoLoader {
	if workers <= 0 {
		workers = PrefetchDepth
	}
	return &photoLoader{fetch: f, sem: semaphore.NewWeighted(int64(workers)), width: width, height: height}
}

// load returns one command per card; each acquires a slot before fetching.
func (p *photoLoader) load(ctx context.Context, cards []domain.Cafe) tea.Cmd {
	if p == nil || p.fetch == nil || len(cards) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(cards))
	for _, c := range cards {
		c := c
		cmds = append(cmds, func() tea.Msg {
			if err := p.sem.Acquire(ctx, 1); err != nil {
				return photoMsg{cafeID: c.ID, err: err}
			}
			defer p.sem.Release(1)

			img, err := p.fetch.FetchImage(ctx, c.PhotoRef)
			if err != nil {
				return photoMsg{cafeID: c.ID, err: err}
			}
			return photoMsg{cafeID: c.ID, art: toASCII(img, p.width, p.height)}
		})
	}
	return tea.Batch(cmds...)
}

// toASCII converts an image to colored ASCII art.
func toASCII(img image.Image, width, height int) string {
	converter := convert.NewImageConverter()

	opts := convert.DefaultOptions
	opts.FixedWidth = width
	opts.FixedHeight = height
	opts.Colored = true
	opts.Ratio = 0.5 // terminal cells are about twice as tall as wide

	return strings.TrimRight(converter.Image2ASCIIString(img, &opts), "\n")
}
