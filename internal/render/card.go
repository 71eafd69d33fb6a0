// Package render turns one source's metadata into a gallery card node.
package render

import (
	"fmt"

	"papergallery/internal/fetcher"
	"papergallery/internal/mdast"
)

// RenderError reports a descriptor that lacks a field the card needs.
type RenderError struct {
	Source string
	Field  string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: missing %s", e.Source, e.Field)
}

// Renderer builds card nodes. It performs no I/O.
type Renderer struct {
	locator fetcher.Locator
	styles  StyleTable
}

func NewRenderer(locator fetcher.Locator) *Renderer {
	return &Renderer{locator: locator, styles: DefaultStyles()}
}

// Render builds the card for sourceID:
//
//	card(url=site)
//	├── cardTitle → text(title)
//	└── div
//	    ├── image(thumbnail)
//	    └── div → span(style) → text(label) ...
func (r *Renderer) Render(sourceID string, project fetcher.ProjectDescriptor, gallery fetcher.GalleryDescriptor) (mdast.Node, error) {
	if project.Title == "" {
		return nil, &RenderError{Source: sourceID, Field: "project.title"}
	}
	if gallery.Thumbnail == "" {
		return nil, &RenderError{Source: sourceID, Field: "thumbnail"}
	}

	return mdast.Card(r.locator.SiteURL(sourceID),
		mdast.CardTitle(mdast.Text(project.Title)),
		mdast.Div(
			mdast.Image(r.locator.FileURL(sourceID, gallery.Thumbnail)),
			mdast.Div(r.labels(gallery.Tags)...),
		),
	), nil
}

// RenderMetadata is Render over a fetched bundle.
func (r *Renderer) RenderMetadata(md *fetcher.Metadata) (mdast.Node, error) {
	if md == nil {
		return nil, &RenderError{Field: "metadata"}
	}
	return r.Render(md.SourceID, md.Project, md.Gallery)
}

// labels flattens tag categories in stored order, then label order.
// Categories without labels contribute nothing.
func (r *Renderer) labels(tags []fetcher.TagCategory) []mdast.Node {
	var out []mdast.Node
	for _, cat := range tags {
		if len(cat.Labels) == 0 {
			continue
		}
		style := r.styles.For(cat.Name)
		for _, label := range cat.Labels {
			out = append(out, mdast.Span(style, mdast.Text(label)))
		}
	}
	return out
}
