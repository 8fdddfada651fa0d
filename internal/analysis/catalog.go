package analysis

import (
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Catalog is the list of products the company can supply. A message is
// only considered a real opportunity when it mentions something the
// catalog actually covers.
type Catalog struct {
	Products []string `yaml:"products"`
}

// LoadCatalog reads the product catalog from a YAML file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Match returns the catalog products mentioned in the text. Matching is
// case- and accent-insensitive so "hidráulico" and "HIDRAULICO" both hit.
func (c *Catalog) Match(text string) []string {
	if len(c.Products) == 0 {
		return nil
	}
	folded := Fold(text)
	var matched []string
	for _, product := range c.Products {
		if strings.Contains(folded, Fold(product)) {
			matched = append(matched, product)
		}
	}
	return matched
}

// Fold lowercases the text and strips diacritics for matching. The
// transformer chain carries internal buffers, so a fresh one is built per
// call and callers can fold from any goroutine.
func Fold(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(folder, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
