// Package gallery implements the document transform: it finds every
// paper-cards placeholder in a tree, resolves the source list once, and
// rewrites each placeholder in place as a grid of its matching cards.
package gallery

import (
	"context"
	"errors"
	"fmt"

	"papergallery/internal/aggregate"
	"papergallery/internal/mdast"
	"papergallery/internal/sources"

	"go.uber.org/zap"
)

// PlaceholderType is the node type the paper-cards directive emits.
const PlaceholderType = "paper-cards"

// DefaultColumns is the grid's column count per breakpoint, smallest first.
var DefaultColumns = []int{1, 1, 2, 3}

type Aggregator interface {
	Aggregate(ctx context.Context, list []sources.Source) []aggregate.Entry
}

// SourceLoader returns the static source list for one build.
type SourceLoader func() ([]sources.Source, error)

type Transformer struct {
	aggregator Aggregator
	load       SourceLoader
	columns    []int
	logger     *zap.Logger
}

type Option func(*Transformer)

func WithLogger(logger *zap.Logger) Option {
	return func(t *Transformer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

func WithColumns(columns []int) Option {
	return func(t *Transformer) {
		if len(columns) > 0 {
			t.columns = append([]int(nil), columns...)
		}
	}
}

func NewTransformer(agg Aggregator, load SourceLoader, opts ...Option) (*Transformer, error) {
	if agg == nil {
		return nil, errors.New("aggregator is nil")
	}
	if load == nil {
		return nil, errors.New("source loader is nil")
	}
	t := &Transformer{
		aggregator: agg,
		load:       load,
		columns:    DefaultColumns,
		logger:     zap.NewNop(),
	}
	for _, apply := range opts {
		if apply != nil {
			apply(t)
		}
	}
	return t, nil
}

// Transform rewrites every placeholder in tree and returns the same tree.
// Only a failure to load the source list is returned as an error; sources
// that cannot be fetched or rendered are dropped from the gallery.
//
// The source list is resolved even when the tree has no placeholders.
func (t *Transformer) Transform(ctx context.Context, tree mdast.Node) (mdast.Node, error) {
	if ctx == nil {
		return nil, errors.New("Transform: nil context")
	}
	if tree == nil {
		return nil, errors.New("Transform: nil tree")
	}

	placeholders := mdast.FindAllByType(tree, PlaceholderType)
	if len(placeholders) == 0 {
		t.logger.Debug("no placeholders in document; resolving sources anyway")
	}

	list, err := t.load()
	if err != nil {
		return nil, fmt.Errorf("load source list: %w", err)
	}
	entries := t.aggregator.Aggregate(ctx, list)

	for _, node := range placeholders {
		subset, hasSubset := Subset(node)
		cards := Filter(entries, subset, hasSubset)
		t.rewrite(node, cards)
		t.logger.Debug("rewrote placeholder",
			zap.String("subset", subset),
			zap.Int("cards", len(cards)))
	}
	return tree, nil
}

// rewrite turns node into a grid in place; the grid's children field holds
// the cards. Each placeholder gets its own copies of the cards so grids never
// share subtrees.
func (t *Transformer) rewrite(node mdast.Node, cards []mdast.Node) {
	own := make([]mdast.Node, len(cards))
	for i, c := range cards {
		own[i] = mdast.Clone(c)
	}
	mdast.Replace(node, mdast.Grid(t.columns, own))
}
