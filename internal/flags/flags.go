// Package flags defines canonical CLI flag names and the environment
// variables that back them. The host runs the plugin with only an
// entry-point flag, so every setting can also come from the environment.
//
// IMPORTANT: These are flag *names* without leading dashes.
package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	// Entry points
	FlagDirective = "directive"
	FlagTransform = "transform"
	FlagRole      = "role"

	// Sources
	FlagSources = "sources"

	// Remote
	FlagOwner     = "owner"
	FlagBranch    = "branch"
	FlagRawBase   = "raw-base"
	FlagPagesBase = "pages-base"
	FlagVia       = "via"
	FlagLocalPath = "local-path"

	// Output
	FlagFormat = "format"

	// Runtime
	FlagConcurrency  = "concurrency"
	FlagFetchTimeout = "fetch-timeout"
	FlagVerbose      = "verbose"
)

// EnvBinding ties a flag to the environment variable that sets it when the
// flag is not given on the command line.
type EnvBinding struct {
	Flag string
	Env  string
}

// EnvBindings lists every environment-backed flag.
var EnvBindings = []EnvBinding{
	{Flag: FlagSources, Env: "PAPER_GALLERY_SOURCES"},
	{Flag: FlagOwner, Env: "PAPER_GALLERY_OWNER"},
	{Flag: FlagBranch, Env: "PAPER_GALLERY_BRANCH"},
	{Flag: FlagRawBase, Env: "PAPER_GALLERY_RAW_BASE"},
	{Flag: FlagPagesBase, Env: "PAPER_GALLERY_PAGES_BASE"},
	{Flag: FlagVia, Env: "PAPER_GALLERY_VIA"},
	{Flag: FlagLocalPath, Env: "NEXUS_LOCAL_PATH"},
	{Flag: FlagConcurrency, Env: "PAPER_GALLERY_CONCURRENCY"},
	{Flag: FlagFetchTimeout, Env: "PAPER_GALLERY_FETCH_TIMEOUT"},
	{Flag: FlagVerbose, Env: "PAPER_GALLERY_VERBOSE"},
}

// ApplyEnv sets each flag in fs from its environment variable unless the
// flag was given explicitly. Flags not defined on fs are skipped. Values are
// parsed by the flag's own type, so a malformed variable is an error.
func ApplyEnv(fs *pflag.FlagSet, lookup func(string) (string, bool)) error {
	if fs == nil || lookup == nil {
		return nil
	}
	for _, b := range EnvBindings {
		f := fs.Lookup(b.Flag)
		if f == nil || f.Changed {
			continue
		}
		v, ok := lookup(b.Env)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if err := f.Value.Set(v); err != nil {
			return fmt.Errorf("invalid %s value %q: %w", b.Env, v, err)
		}
	}
	return nil
}
