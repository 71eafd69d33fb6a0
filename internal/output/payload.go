package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DecodePayload reads one JSON value from r into v. Numbers are kept as
// json.Number so they are written back exactly as received.
func DecodePayload(r io.Reader, v any) error {
	if r == nil {
		return errors.New("payload reader must not be nil")
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("decode payload: empty input")
		}
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// EncodePayload writes v to w as a single JSON document and flushes w when
// it supports it. HTML characters are not escaped.
func EncodePayload(w io.Writer, v any) error {
	if w == nil {
		return errors.New("payload writer must not be nil")
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return flushIfPossible(w)
}
