package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"papergallery/internal/sources"

	"github.com/fatih/color"
)

// Ungrouped is the heading printed for sources listed before any group
// marker.
const Ungrouped = "(ungrouped)"

// SourceRecord is the structured form of one listed source.
type SourceRecord struct {
	ID    string `json:"id"`
	Group string `json:"group,omitempty"`
}

// ConsoleSink prints a source list as text, a JSON array, or NDJSON.
type ConsoleSink struct {
	writer  io.Writer
	format  string // "text", "json", "ndjson"
	mu      sync.Mutex
	records []SourceRecord

	started   bool
	lastGroup string
	groups    int
	count     int
}

func NewConsoleSink(w io.Writer, format string) (*ConsoleSink, error) {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}
	switch format {
	case "text", "json", "ndjson":
	default:
		return nil, fmt.Errorf("unsupported console format: %s", format)
	}
	return &ConsoleSink{writer: w, format: format}, nil
}

func (s *ConsoleSink) Write(src sources.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := SourceRecord{ID: src.ID, Group: src.Group}
	s.count++

	switch s.format {
	case "json":
		s.records = append(s.records, rec)
		return nil
	case "ndjson":
		if err := json.NewEncoder(s.writer).Encode(rec); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	default:
		if !s.started || src.Group != s.lastGroup {
			heading := src.Group
			if heading == "" {
				heading = Ungrouped
			}
			if s.started {
				if _, err := fmt.Fprintln(s.writer); err != nil {
					return err
				}
			}
			if _, err := color.New(color.Bold).Fprintln(s.writer, heading); err != nil {
				return err
			}
			s.started = true
			s.lastGroup = src.Group
			s.groups++
		}
		if _, err := fmt.Fprintf(s.writer, "  %s\n", src.ID); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
}

// Close writes buffered JSON output, or a summary line in text mode.
func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		records := s.records
		if records == nil {
			records = []SourceRecord{}
		}
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(records); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	case "text":
		if s.started {
			if _, err := fmt.Fprintln(s.writer); err != nil {
				return err
			}
		}
		if _, err := color.New(color.Faint).Fprintf(s.writer, "%d sources in %d groups\n", s.count, s.groups); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	return nil
}
