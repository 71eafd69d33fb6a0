package mdast

// Text returns a text leaf.
func Text(value string) Node {
	return Node{"type": "text", "value": value}
}

// Image returns an image node pointing at url.
func Image(url string) Node {
	return Node{"type": "image", "url": url}
}

// Div wraps children in a div.
func Div(children ...Node) Node {
	return Node{"type": "div", "children": List(children)}
}

// Span wraps children in a span carrying an inline style.
func Span(style map[string]any, children ...Node) Node {
	return Node{"type": "span", "style": style, "children": List(children)}
}

// Grid returns a responsive grid; columns lists the column count per
// breakpoint, smallest first.
func Grid(columns []int, children []Node) Node {
	cols := make([]any, len(columns))
	for i, c := range columns {
		cols[i] = c
	}
	return Node{"type": "grid", "columns": cols, "children": List(children)}
}

// Card returns a linked card node.
func Card(url string, children ...Node) Node {
	return Node{"type": "card", "url": url, "children": List(children)}
}

// CardTitle returns the title row of a card.
func CardTitle(children ...Node) Node {
	return Node{"type": "cardTitle", "children": List(children)}
}
