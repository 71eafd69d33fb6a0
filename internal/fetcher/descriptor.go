package fetcher

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectDescriptor is the subset of a source's project document the
// gallery needs.
type ProjectDescriptor struct {
	Title string
}

// TagCategory is one entry of the gallery document's tags mapping. Labels is
// empty when the category was declared with no value.
type TagCategory struct {
	Name   string
	Labels []string
}

// GalleryDescriptor is the subset of a source's gallery document the gallery
// needs. Tags keep the document's key order.
type GalleryDescriptor struct {
	Thumbnail string
	Tags      []TagCategory
}

// ParseProject decodes a project document. It requires project.title.
func ParseProject(data []byte) (ProjectDescriptor, error) {
	root, err := parseMapping(data)
	if err != nil {
		return ProjectDescriptor{}, err
	}

	project := lookup(root, "project")
	if isNull(project) {
		return ProjectDescriptor{}, missingField("project.title")
	}
	if project.Kind != yaml.MappingNode {
		return ProjectDescriptor{}, wrongType("project", "a mapping")
	}
	title, err := requiredScalar(project, "title", "project.title")
	if err != nil {
		return ProjectDescriptor{}, err
	}
	return ProjectDescriptor{Title: title}, nil
}

// ParseGallery decodes a gallery document. It requires thumbnail and tags;
// a tag category may map to null or an empty sequence.
func ParseGallery(data []byte) (GalleryDescriptor, error) {
	root, err := parseMapping(data)
	if err != nil {
		return GalleryDescriptor{}, err
	}

	thumb, err := requiredScalar(root, "thumbnail", "thumbnail")
	if err != nil {
		return GalleryDescriptor{}, err
	}

	tags := lookup(root, "tags")
	if isNull(tags) {
		return GalleryDescriptor{}, missingField("tags")
	}
	if tags.Kind != yaml.MappingNode {
		return GalleryDescriptor{}, wrongType("tags", "a mapping")
	}

	g := GalleryDescriptor{Thumbnail: thumb}
	for i := 0; i+1 < len(tags.Content); i += 2 {
		key, val := resolve(tags.Content[i]), resolve(tags.Content[i+1])
		if key.Kind != yaml.ScalarNode {
			return GalleryDescriptor{}, wrongType("tags", "keyed by strings")
		}
		field := "tags." + key.Value
		cat := TagCategory{Name: key.Value}

		switch {
		case isNull(val):
		case val.Kind == yaml.ScalarNode:
			// A bare string is a one-label category; a blank one has no labels.
			if !blank(val.Value) {
				cat.Labels = []string{val.Value}
			}
		case val.Kind == yaml.SequenceNode:
			for _, item := range val.Content {
				item = resolve(item)
				if isNull(item) {
					continue
				}
				if item.Kind != yaml.ScalarNode {
					return GalleryDescriptor{}, wrongType(field, "a sequence of strings")
				}
				if blank(item.Value) {
					continue
				}
				cat.Labels = append(cat.Labels, item.Value)
			}
		default:
			return GalleryDescriptor{}, wrongType(field, "a sequence of strings")
		}
		g.Tags = append(g.Tags, cat)
	}
	return g, nil
}

func parseMapping(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &FetchError{Kind: KindParse, Err: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &FetchError{Kind: KindParse, Err: errors.New("empty document")}
	}
	root := resolve(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, &FetchError{Kind: KindParse, Err: errors.New("document root is not a mapping")}
	}
	return root, nil
}

// lookup returns the value stored under key in mapping m, or nil.
func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		k := resolve(m.Content[i])
		if k.Kind == yaml.ScalarNode && k.Value == key {
			return resolve(m.Content[i+1])
		}
	}
	return nil
}

func requiredScalar(m *yaml.Node, key, field string) (string, error) {
	n := lookup(m, key)
	if isNull(n) {
		return "", missingField(field)
	}
	if n.Kind != yaml.ScalarNode {
		return "", wrongType(field, "a string")
	}
	return n.Value, nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

func missingField(field string) error {
	return &FetchError{Kind: KindMissingField, Field: field}
}

func wrongType(field, want string) error {
	return &FetchError{Kind: KindParse, Field: field, Err: fmt.Errorf("expected %s", want)}
}
