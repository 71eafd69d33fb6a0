package gallery

import (
	"encoding/json"
	"fmt"

	"papergallery/internal/aggregate"
	"papergallery/internal/mdast"
)

// Subset reads a placeholder's subset option. It looks at the node's own
// "subset" field first and then at "options.subset". ok is false only when
// the option is absent or null, which selects every entry. The value is
// compared verbatim: "" is a real subset that matches ungrouped sources,
// and surrounding whitespace is kept.
func Subset(n mdast.Node) (string, bool) {
	v, present := n["subset"]
	if !present {
		if opts, isMap := n["options"].(map[string]any); isMap {
			v = opts["subset"]
		}
	}
	if v == nil {
		return "", false
	}
	return text(v), true
}

// Filter keeps the entries whose grouping key equals subset, in aggregated
// order. With no subset every entry is kept. Entries without a grouping key
// match only the empty subset.
func Filter(entries []aggregate.Entry, subset string, hasSubset bool) []mdast.Node {
	cards := make([]mdast.Node, 0, len(entries))
	for _, e := range entries {
		if hasSubset && e.Source.Group != subset {
			continue
		}
		cards = append(cards, e.Card)
	}
	return cards
}

// text coerces an option value to the form it would have been written in.
func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
