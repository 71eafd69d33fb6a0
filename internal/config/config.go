package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Document readers.
const (
	ViaRaw   = "raw"
	ViaAPI   = "api"
	ViaLocal = "local"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in sync:
	// - flag names and env bindings in internal/flags
	// - flag wiring in internal/cli/root.go
	Sources Sources
	Remote  Remote
	Output  Output
	Runtime Runtime
}

type Sources struct {
	// File is the source list: one identifier per line, "#<group>" lines set
	// the grouping key for the identifiers that follow (see --sources).
	File string
}

type Remote struct {
	// Owner is the GitHub account that hosts every source repository (name
	// or URL; see --owner).
	Owner string

	// Branch holding the descriptors (see --branch).
	Branch string

	// RawBase is the prefix for raw file URLs; "<RawBase>/<id>/<branch>/<path>".
	// Empty means https://raw.githubusercontent.com/<owner> (see --raw-base).
	RawBase string

	// PagesBase is the prefix for published site URLs; "<PagesBase>/<id>".
	// Empty means https://<owner>.github.io (see --pages-base).
	PagesBase string

	// Via selects the document reader (see --via).
	// Allowed values: raw, api, local.
	Via string

	// LocalPath is a directory holding one checkout per source (see
	// --local-path). Setting it selects the local reader.
	LocalPath string
}

type Output struct {
	// Format controls how "sources" prints the list (see --format).
	// Allowed values: text, json, ndjson.
	Format string
}

type Runtime struct {
	// Concurrency caps how many sources are resolved at once (see
	// --concurrency). 0 means no cap.
	Concurrency int

	// FetchTimeout bounds each source's fetch (see --fetch-timeout). 0 means
	// no per-source timeout.
	FetchTimeout time.Duration

	// Verbose enables debug logging, including per-request HTTP traces.
	Verbose bool
}

func New() *Config {
	return &Config{
		Sources: Sources{
			File: "papers.txt",
		},
		Remote: Remote{
			Owner:  "pollomarzo",
			Branch: "main",
			Via:    ViaRaw,
		},
		Output: Output{
			Format: "text",
		},
		Runtime: Runtime{
			Concurrency:  16,
			FetchTimeout: 30 * time.Second,
		},
	}
}

func (c *Config) Validate() error {
	c.Sources.File = strings.TrimSpace(c.Sources.File)
	if c.Sources.File == "" {
		return errors.New("--sources must not be empty")
	}

	// Reader selection. A local path always means the local reader.
	c.Remote.LocalPath = strings.TrimSpace(c.Remote.LocalPath)
	c.Remote.Via = normalizeEnumValue(c.Remote.Via)
	if c.Remote.Via == "" {
		c.Remote.Via = ViaRaw
	}
	if c.Remote.LocalPath != "" {
		c.Remote.Via = ViaLocal
	}
	switch c.Remote.Via {
	case ViaRaw, ViaAPI:
	case ViaLocal:
		if c.Remote.LocalPath == "" {
			return errors.New("--via local requires --local-path")
		}
	default:
		return fmt.Errorf("unsupported --via: %s (must be one of: raw, api, local)", c.Remote.Via)
	}

	owner, err := normalizeAccountSelector(c.Remote.Owner)
	if err != nil {
		return fmt.Errorf("invalid --owner value: %w", err)
	}
	if owner == "" {
		return errors.New("--owner must not be empty")
	}
	c.Remote.Owner = owner

	c.Remote.Branch = strings.TrimSpace(c.Remote.Branch)
	if c.Remote.Branch == "" {
		return errors.New("--branch must not be empty")
	}

	if strings.TrimSpace(c.Remote.RawBase) == "" {
		c.Remote.RawBase = "https://raw.githubusercontent.com/" + owner
	}
	if c.Remote.RawBase, err = normalizeBaseURL(c.Remote.RawBase); err != nil {
		return fmt.Errorf("invalid --raw-base value: %w", err)
	}
	if strings.TrimSpace(c.Remote.PagesBase) == "" {
		c.Remote.PagesBase = "https://" + strings.ToLower(owner) + ".github.io"
	}
	if c.Remote.PagesBase, err = normalizeBaseURL(c.Remote.PagesBase); err != nil {
		return fmt.Errorf("invalid --pages-base value: %w", err)
	}

	// Output validation
	c.Output.Format = normalizeEnumValue(c.Output.Format)
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
	if c.Output.Format != "text" && c.Output.Format != "json" && c.Output.Format != "ndjson" {
		return fmt.Errorf("unsupported --format: %s (must be one of: text, json, ndjson)", c.Output.Format)
	}

	// Runtime validation
	if c.Runtime.Concurrency < 0 {
		return errors.New("--concurrency must be >= 0")
	}
	if c.Runtime.FetchTimeout < 0 {
		return errors.New("--fetch-timeout must be >= 0")
	}

	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// normalizeBaseURL requires an absolute http(s) URL and strips trailing
// slashes.
func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%q", raw)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%q: expected an absolute http(s) URL", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("%q: query and fragment are not allowed", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

func normalizeAccountSelector(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	// Accept a raw account name, or a GitHub URL like:
	//   https://github.com/<name>
	//   https://github.com/orgs/<name>
	//   https://github.com/users/<name>
	//   github.com/<name>
	if strings.HasPrefix(raw, "github.com/") || strings.HasPrefix(raw, "www.github.com/") {
		raw = "https://" + raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("%q", raw)
		}
		host := strings.ToLower(u.Hostname())
		if host == "www.github.com" {
			host = "github.com"
		}
		if host != "github.com" {
			return "", fmt.Errorf("%q", raw)
		}
		parts := strings.FieldsFunc(strings.Trim(u.Path, "/"), func(r rune) bool { return r == '/' })
		if len(parts) == 0 {
			return "", fmt.Errorf("%q", raw)
		}
		if parts[0] == "orgs" || parts[0] == "users" {
			if len(parts) < 2 {
				return "", fmt.Errorf("%q", raw)
			}
			return parts[1], nil
		}
		return parts[0], nil
	}

	// Basic sanity: reject obvious repo-like inputs.
	if strings.Contains(raw, "/") {
		return "", fmt.Errorf("%q", raw)
	}
	return raw, nil
}
