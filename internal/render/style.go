package render

// Label colours per tag category.
const (
	DefaultBackground  = "#4E66F6"
	DomainsBackground  = "#7A77B4"
	PackagesBackground = "#B83BC0"
)

// StyleTable maps a tag category to the background of its labels.
type StyleTable struct {
	Backgrounds map[string]string
	Fallback    string
}

func DefaultStyles() StyleTable {
	return StyleTable{
		Backgrounds: map[string]string{
			"domains":  DomainsBackground,
			"packages": PackagesBackground,
		},
		Fallback: DefaultBackground,
	}
}

// For returns a fresh inline style for a label of category. Unknown
// categories get the fallback colour.
func (s StyleTable) For(category string) map[string]any {
	bg, ok := s.Backgrounds[category]
	if !ok {
		bg = s.Fallback
	}
	return map[string]any{
		"display":      "inline-block",
		"borderRadius": 8,
		"color":        "white",
		"padding":      5,
		"margin":       5,
		"background":   bg,
	}
}
