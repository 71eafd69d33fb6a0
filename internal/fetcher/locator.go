package fetcher

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

const (
	// ProjectDocument is the per-repository project descriptor (title lives
	// under project.title).
	ProjectDocument = "myst.yml"
	// GalleryDocument holds the thumbnail path and the tag categories.
	GalleryDocument = "_gallery_info.yml"
)

// Locator derives every URL that belongs to a source from its identifier.
//
//	raw files:  <RawBase>/<id>/<Branch>/<path>
//	site:       <PagesBase>/<id>
type Locator struct {
	RawBase   string
	PagesBase string
	Branch    string
}

// FileURL returns the raw download URL of a repository-relative path.
func (l Locator) FileURL(sourceID, path string) string {
	return strings.TrimRight(l.RawBase, "/") + "/" + url.PathEscape(sourceID) + "/" +
		url.PathEscape(l.Branch) + "/" + strings.TrimLeft(path, "/")
}

// SiteURL returns the published site of a source.
func (l Locator) SiteURL(sourceID string) string {
	return strings.TrimRight(l.PagesBase, "/") + "/" + url.PathEscape(sourceID)
}

// ValidateSourceID reports whether id can be used as a single URL path
// segment and a single directory name.
func ValidateSourceID(id string) error {
	switch {
	case id == "":
		return errors.New("empty identifier")
	case id == "." || id == "..":
		return fmt.Errorf("%q is not a path segment", id)
	case strings.ContainsAny(id, `/\?#`):
		return fmt.Errorf("%q contains a path or URL delimiter", id)
	case strings.IndexFunc(id, isSpaceOrControl) >= 0:
		return fmt.Errorf("%q contains whitespace or control characters", id)
	}
	return nil
}

func isSpaceOrControl(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r)
}
