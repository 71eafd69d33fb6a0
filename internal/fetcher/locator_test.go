package fetcher

import "testing"

func TestLocator(t *testing.T) {
	l := Locator{
		RawBase:   "https://raw.githubusercontent.com/pollomarzo/",
		PagesBase: "https://pollomarzo.github.io",
		Branch:    "main",
	}

	if got, want := l.FileURL("alpha", ProjectDocument), "https://raw.githubusercontent.com/pollomarzo/alpha/main/myst.yml"; got != want {
		t.Errorf("FileURL() = %q, want %q", got, want)
	}
	if got, want := l.FileURL("alpha", "/thumbnails/a.png"), "https://raw.githubusercontent.com/pollomarzo/alpha/main/thumbnails/a.png"; got != want {
		t.Errorf("FileURL() = %q, want %q", got, want)
	}
	if got, want := l.SiteURL("alpha"), "https://pollomarzo.github.io/alpha"; got != want {
		t.Errorf("SiteURL() = %q, want %q", got, want)
	}
}

func TestValidateSourceID(t *testing.T) {
	valid := []string{"alpha", "my-paper_2024", "paper.v2"}
	invalid := []string{"", ".", "..", "owner/repo", `a\b`, "a b", "a?b", "a#b", "tab\there"}

	for _, id := range valid {
		if err := ValidateSourceID(id); err != nil {
			t.Errorf("ValidateSourceID(%q) = %v, want nil", id, err)
		}
	}
	for _, id := range invalid {
		if err := ValidateSourceID(id); err == nil {
			t.Errorf("ValidateSourceID(%q) = nil, want error", id)
		}
	}
}
