// Package aggregate fans fetch+render work out across every gallery source
// and collects the cards that made it, in source-list order.
package aggregate

import (
	"context"
	"errors"

	"papergallery/internal/fetcher"
	"papergallery/internal/mdast"
	"papergallery/internal/sources"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves one source's metadata.
type Fetcher interface {
	Fetch(ctx context.Context, sourceID string) (*fetcher.Metadata, error)
}

// Renderer turns fetched metadata into a card node.
type Renderer interface {
	Render(sourceID string, project fetcher.ProjectDescriptor, gallery fetcher.GalleryDescriptor) (mdast.Node, error)
}

// Entry is one rendered card together with the source it came from. The
// grouping key travels on Source unchanged.
type Entry struct {
	Source sources.Source
	Card   mdast.Node
}

type Aggregator struct {
	fetcher     Fetcher
	renderer    Renderer
	concurrency int
	logger      *zap.Logger
}

type Option func(*Aggregator)

// WithConcurrency caps in-flight sources. n <= 0 means one goroutine per
// source with no cap.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		a.concurrency = n
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func NewAggregator(f Fetcher, r Renderer, opts ...Option) (*Aggregator, error) {
	if f == nil {
		return nil, errors.New("fetcher is nil")
	}
	if r == nil {
		return nil, errors.New("renderer is nil")
	}
	a := &Aggregator{fetcher: f, renderer: r, logger: zap.NewNop()}
	for _, apply := range opts {
		if apply != nil {
			apply(a)
		}
	}
	return a, nil
}

// Aggregate fetches and renders every source concurrently and returns the
// successful cards in the same relative order as list. A source that fails
// at either step is logged and left out; Aggregate itself never fails.
func (a *Aggregator) Aggregate(ctx context.Context, list []sources.Source) []Entry {
	// One slot per source; each worker writes only its own index.
	slots := make([]mdast.Node, len(list))

	var g errgroup.Group
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, src := range list {
		g.Go(func() error {
			card, stage, err := a.resolve(ctx, src)
			if err != nil {
				a.logger.Warn("dropping source",
					zap.String("source", src.ID),
					zap.String("group", src.Group),
					zap.String("stage", stage),
					zap.Error(err))
				return nil
			}
			slots[i] = card
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Entry, 0, len(list))
	for i, card := range slots {
		if card == nil {
			continue
		}
		out = append(out, Entry{Source: list[i], Card: card})
	}

	a.logger.Info("aggregated sources",
		zap.Int("sources", len(list)),
		zap.Int("rendered", len(out)),
		zap.Int("dropped", len(list)-len(out)))
	return out
}

func (a *Aggregator) resolve(ctx context.Context, src sources.Source) (mdast.Node, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "fetch", err
	}
	md, err := a.fetcher.Fetch(ctx, src.ID)
	if err != nil {
		return nil, "fetch", err
	}
	if md == nil {
		return nil, "fetch", errors.New("fetcher returned no metadata")
	}
	card, err := a.renderer.Render(src.ID, md.Project, md.Gallery)
	if err != nil {
		return nil, "render", err
	}
	return card, "", nil
}
