package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"papergallery/internal/aggregate"
	"papergallery/internal/mdast"
	"papergallery/internal/sources"

	"github.com/google/go-cmp/cmp"
)

type stubAggregator struct {
	entries []aggregate.Entry
	calls   atomic.Int32
}

func (s *stubAggregator) Aggregate(context.Context, []sources.Source) []aggregate.Entry {
	s.calls.Add(1)
	return s.entries
}

func entry(id, group string) aggregate.Entry {
	return aggregate.Entry{
		Source: sources.Source{ID: id, Group: group},
		Card:   mdast.Card("https://pages/"+id, mdast.CardTitle(mdast.Text(id))),
	}
}

func staticSources(list ...sources.Source) SourceLoader {
	return func() ([]sources.Source, error) { return list, nil }
}

func decode(t *testing.T, raw string) mdast.Node {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var n mdast.Node
	if err := dec.Decode(&n); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return n
}

func cardTitles(t *testing.T, grid mdast.Node) []string {
	t.Helper()
	var out []string
	for _, card := range mdast.Children(grid) {
		title := mdast.Children(card)[0]
		out = append(out, mdast.Children(title)[0]["value"].(string))
	}
	return out
}

func TestFilter(t *testing.T) {
	entries := []aggregate.Entry{entry("a", "2023"), entry("b", "2023"), entry("c", "2024"), entry("d", "")}

	tests := []struct {
		name      string
		subset    string
		hasSubset bool
		want      []string
	}{
		{name: "matching subset keeps order", subset: "2023", hasSubset: true, want: []string{"a", "b"}},
		{name: "no subset keeps everything", want: []string{"a", "b", "c", "d"}},
		{name: "no match is empty", subset: "1999", hasSubset: true, want: nil},
		{name: "empty subset keeps only ungrouped", subset: "", hasSubset: true, want: []string{"d"}},
		{name: "subset is not trimmed", subset: " 2023", hasSubset: true, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards := Filter(entries, tt.subset, tt.hasSubset)
			var got []string
			for _, c := range cards {
				got = append(got, c["url"].(string)[len("https://pages/"):])
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Filter() mismatch (-want +got):\n%s", diff)
			}
			if cards == nil {
				t.Fatal("Filter() returned nil slice")
			}
		})
	}
}

func TestSubset(t *testing.T) {
	tests := []struct {
		name   string
		node   string
		want   string
		wantOK bool
	}{
		{name: "string", node: `{"type":"paper-cards","subset":"2023"}`, want: "2023", wantOK: true},
		{name: "number coerced to text", node: `{"type":"paper-cards","subset":2023}`, want: "2023", wantOK: true},
		{name: "null", node: `{"type":"paper-cards","subset":null}`},
		{name: "empty is a real subset", node: `{"type":"paper-cards","subset":""}`, want: "", wantOK: true},
		{name: "whitespace kept", node: `{"type":"paper-cards","subset":" 2023 "}`, want: " 2023 ", wantOK: true},
		{name: "bool coerced to text", node: `{"type":"paper-cards","subset":true}`, want: "true", wantOK: true},
		{name: "null field does not fall back to options", node: `{"type":"paper-cards","subset":null,"options":{"subset":"2024"}}`},
		{name: "absent", node: `{"type":"paper-cards"}`},
		{name: "nested options", node: `{"type":"paper-cards","options":{"subset":"2024"}}`, want: "2024", wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Subset(decode(t, tt.node))
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("Subset() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestTransform_RewritesPlaceholdersInPlace(t *testing.T) {
	agg := &stubAggregator{entries: []aggregate.Entry{entry("alpha", "2023"), entry("beta", "2023"), entry("gamma", "2024")}}
	tr, err := NewTransformer(agg, staticSources())
	if err != nil {
		t.Fatalf("NewTransformer: %v", err)
	}

	tree := decode(t, `{
		"type": "root",
		"children": [
			{"type": "heading", "depth": 1, "children": [{"type": "text", "value": "Papers"}]},
			{"type": "paper-cards", "subset": "2023", "children": []},
			{"type": "block", "children": [{"type": "paper-cards", "children": []}]}
		]
	}`)
	first := mdast.Children(tree)[1]
	nested := mdast.Children(mdast.Children(tree)[2])[0]

	out, err := tr.Transform(context.Background(), tree)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if agg.calls.Load() != 1 {
		t.Fatalf("aggregator calls = %d, want 1 per document", agg.calls.Load())
	}

	if mdast.Type(first) != "grid" || mdast.Type(nested) != "grid" {
		t.Fatalf("placeholders not rewritten in place: %q, %q", mdast.Type(first), mdast.Type(nested))
	}
	if _, ok := first["subset"]; ok {
		t.Fatal("placeholder fields should be replaced")
	}
	if diff := cmp.Diff([]any{1, 1, 2, 3}, first["columns"]); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"alpha", "beta"}, cardTitles(t, first)); diff != "" {
		t.Fatalf("subset grid mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"alpha", "beta", "gamma"}, cardTitles(t, nested)); diff != "" {
		t.Fatalf("unfiltered grid mismatch (-want +got):\n%s", diff)
	}
	if mdast.Type(mdast.Children(out)[0]) != "heading" {
		t.Fatal("unrelated node moved")
	}
}

func TestTransform_SecondRunIsNoOp(t *testing.T) {
	agg := &stubAggregator{entries: []aggregate.Entry{entry("alpha", "2023")}}
	tr, err := NewTransformer(agg, staticSources())
	if err != nil {
		t.Fatalf("NewTransformer: %v", err)
	}

	tree := decode(t, `{"type":"root","children":[{"type":"paper-cards","subset":"2023"}]}`)
	if _, err := tr.Transform(context.Background(), tree); err != nil {
		t.Fatalf("first Transform() error = %v", err)
	}
	after := mdast.Clone(tree)

	if _, err := tr.Transform(context.Background(), tree); err != nil {
		t.Fatalf("second Transform() error = %v", err)
	}
	if diff := cmp.Diff(after, tree); diff != "" {
		t.Fatalf("second run changed tree (-first +second):\n%s", diff)
	}
}

func TestTransform_UnknownFieldsRoundTrip(t *testing.T) {
	const raw = `{"type":"root","meta":{"x":[1,2.5,"y",null,true]},"children":[{"type":"mystery","weird":{"nested":[{"type":"paper-cards-not"}]},"big":12345678901234567890}]}`

	tr, err := NewTransformer(&stubAggregator{}, staticSources())
	if err != nil {
		t.Fatalf("NewTransformer: %v", err)
	}
	tree := decode(t, raw)
	if _, err := tr.Transform(context.Background(), tree); err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	got, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if diff := cmp.Diff(decode(t, raw), decode(t, string(got))); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTransform_NoPlaceholdersStillResolves(t *testing.T) {
	agg := &stubAggregator{}
	loads := 0
	tr, err := NewTransformer(agg, func() ([]sources.Source, error) {
		loads++
		return []sources.Source{{ID: "alpha"}}, nil
	})
	if err != nil {
		t.Fatalf("NewTransformer: %v", err)
	}
	if _, err := tr.Transform(context.Background(), decode(t, `{"type":"root","children":[]}`)); err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if loads != 1 || agg.calls.Load() != 1 {
		t.Fatalf("loads=%d aggregate calls=%d, want 1 and 1", loads, agg.calls.Load())
	}
}

func TestTransform_SourceListErrorIsFatal(t *testing.T) {
	boom := errors.New("no such file")
	agg := &stubAggregator{}
	tr, err := NewTransformer(agg, func() ([]sources.Source, error) { return nil, boom })
	if err != nil {
		t.Fatalf("NewTransformer: %v", err)
	}

	_, err = tr.Transform(context.Background(), decode(t, `{"type":"root","children":[{"type":"paper-cards"}]}`))
	if !errors.Is(err, boom) {
		t.Fatalf("Transform() error = %v, want wrapped %v", err, boom)
	}
	if agg.calls.Load() != 0 {
		t.Fatal("aggregator should not run without a source list")
	}
}

func TestTransform_GridsDoNotShareCards(t *testing.T) {
	agg := &stubAggregator{entries: []aggregate.Entry{entry("alpha", "")}}
	tr, err := NewTransformer(agg, staticSources())
	if err != nil {
		t.Fatalf("NewTransformer: %v", err)
	}
	tree := decode(t, `{"type":"root","children":[{"type":"paper-cards"},{"type":"paper-cards"}]}`)
	if _, err := tr.Transform(context.Background(), tree); err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	grids := mdast.Children(tree)
	mdast.Children(grids[0])[0]["url"] = "changed"
	if got := mdast.Children(grids[1])[0]["url"]; got != "https://pages/alpha" {
		t.Fatalf("grids share card nodes: %v", got)
	}
}

func TestNewTransformer_Validation(t *testing.T) {
	if _, err := NewTransformer(nil, staticSources()); err == nil {
		t.Fatal("want error for nil aggregator")
	}
	if _, err := NewTransformer(&stubAggregator{}, nil); err == nil {
		t.Fatal("want error for nil loader")
	}
}
