package trend

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed recommendations.yaml
var defaultCatalog []byte

type Recommendation struct {
	Title string `yaml:"title" json:"title"`
	Text  string `yaml:"text" json:"text"`
}

// Catalog holds the care advice shown for every trend plus the trend specific
// additions.
type Catalog struct {
	Base       []Recommendation `yaml:"base"`
	Improving  []Recommendation `yaml:"improving"`
	Concerning []Recommendation `yaml:"concerning"`
	Stable     []Recommendation `yaml:"stable"`
}

var catalog = mustParseCatalog(defaultCatalog)

func mustParseCatalog(data []byte) Catalog {
	c, err := ParseCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse recommendation catalog: %w", err)
	}
	if len(c.Base) == 0 {
		return Catalog{}, fmt.Errorf("parse recommendation catalog: no base recommendations")
	}
	return c, nil
}

// For returns the base recommendations followed by the ones for t.
func (c Catalog) For(t Trend) []Recommendation {
	var extra []Recommendation
	switch t {
	case Improving:
		extra = c.Improving
	case Concerning:
		extra = c.Concerning
	default:
		extra = c.Stable
	}

	recs := make([]Recommendation, 0, len(c.Base)+len(extra))
	recs = append(recs, c.Base...)
	return append(recs, extra...)
}

// Recommendations uses the built-in catalog.
func Recommendations(t Trend) []Recommendation {
	return catalog.For(t)
}
