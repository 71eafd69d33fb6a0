// Package sources reads the gallery source list.
//
// The list has one entry per line. Blank lines are ignored. A line starting
// with GroupMarker sets the grouping key (the trimmed text after the marker)
// for every following identifier until the next marker line. Any other line
// is a source identifier.
package sources

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// GroupMarker starts a grouping-key line.
const GroupMarker = "#"

// Source is one remote project contributing a gallery card.
type Source struct {
	// ID identifies the remote project; it becomes a URL path segment.
	ID string
	// Group is the grouping key in effect when ID was read. Empty when no
	// marker line preceded it. Used only for subset filtering.
	Group string
}

// Parse reads a source list from r.
func Parse(r io.Reader) ([]Source, error) {
	var (
		out   []Source
		group string
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, GroupMarker) {
			group = strings.TrimSpace(strings.TrimPrefix(line, GroupMarker))
			continue
		}
		out = append(out, Source{ID: line, Group: group})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read source list: %w", err)
	}
	return out, nil
}

// Load reads and parses the source list at path.
func Load(path string) ([]Source, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open source list: %w", err)
	}
	defer f.Close()

	list, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// Groups returns the distinct grouping keys in first-seen order.
func Groups(list []Source) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range list {
		if _, ok := seen[s.Group]; ok {
			continue
		}
		seen[s.Group] = struct{}{}
		out = append(out, s.Group)
	}
	return out
}
