// Package plugin is the host-facing boundary: the static declaration the
// host registers, the directive expansion, and the document transform.
// Each entry point is independent and keeps no state between calls.
package plugin

import (
	"context"
	"errors"
	"fmt"

	"papergallery/internal/gallery"
	"papergallery/internal/mdast"
)

const (
	Name          = "Paper Gallery"
	DirectiveName = gallery.PlaceholderType
	SubsetOption  = "subset"
)

// ErrRolesUnsupported is returned for any role invocation.
var ErrRolesUnsupported = errors.New("plugin defines no roles")

type OptionSpec struct {
	Type string `json:"type"`
	Doc  string `json:"doc,omitempty"`
}

type DirectiveSpec struct {
	Name    string                `json:"name"`
	Doc     string                `json:"doc"`
	Options map[string]OptionSpec `json:"options"`
}

type TransformSpec struct {
	Stage string `json:"stage"`
}

type Spec struct {
	Name       string          `json:"name"`
	Directives []DirectiveSpec `json:"directives"`
	Transforms []TransformSpec `json:"transforms"`
}

// Describe returns the declaration printed when the plugin runs without an
// entry-point flag.
func Describe() Spec {
	return Spec{
		Name: Name,
		Directives: []DirectiveSpec{{
			Name: DirectiveName,
			Doc:  "Embed a gallery of paper cards, optionally filtered to one group.",
			Options: map[string]OptionSpec{
				SubsetOption: {Type: "string", Doc: "Filter by year"},
			},
		}},
		Transforms: []TransformSpec{{Stage: "document"}},
	}
}

// DirectiveData is the payload the host sends to expand a directive.
type DirectiveData struct {
	Name    string         `json:"name"`
	Options map[string]any `json:"options"`
}

// RunDirective expands the paper-cards directive into an empty placeholder
// carrying its subset option. The subset value is passed through as given,
// null when absent.
func RunDirective(name string, data DirectiveData) ([]mdast.Node, error) {
	if name != DirectiveName {
		return nil, fmt.Errorf("unknown directive %q", name)
	}
	var subset any
	if data.Options != nil {
		subset = data.Options[SubsetOption]
	}
	return []mdast.Node{{
		"type":       DirectiveName,
		SubsetOption: subset,
		"children":   []any{},
	}}, nil
}

// Transformer rewrites a document tree.
type Transformer interface {
	Transform(ctx context.Context, tree mdast.Node) (mdast.Node, error)
}

// RunTransform runs t over tree. The host may register the transform under
// any name; name is only used in errors.
func RunTransform(ctx context.Context, name string, tree mdast.Node, t Transformer) (mdast.Node, error) {
	if t == nil {
		return nil, errors.New("RunTransform: nil transformer")
	}
	if tree == nil {
		return nil, fmt.Errorf("transform %q: empty document", name)
	}
	out, err := t.Transform(ctx, tree)
	if err != nil {
		return nil, fmt.Errorf("transform %q: %w", name, err)
	}
	return out, nil
}

// RunRole always fails.
func RunRole(name string) error {
	return fmt.Errorf("role %q: %w", name, ErrRolesUnsupported)
}
