package fetcher

import (
	"golang.org/x/sync/singleflight"
)

// Group collapses concurrent fetches of the same source into one. Nothing is
// remembered once the call returns.
type Group struct {
	g singleflight.Group
}

func (g *Group) Do(sourceID string, fn func() (*Metadata, error)) (*Metadata, error, bool) {
	v, err, shared := g.g.Do(sourceID, func() (interface{}, error) {
		return fn()
	})
	md, _ := v.(*Metadata)
	return md, err, shared
}
