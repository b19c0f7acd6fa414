package source

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"yada/internal/domain"
)

// document is the on-disk shape of a food batch. JSON documents decode
// through the same YAML parser.
//
//	foods:
//	  - id: bread
//	    name: Bread Slice
//	    keywords: [bread, grain]
//	    calories: 80
//	  - id: toast
//	    name: Buttered Toast
//	    components:
//	      - {id: bread, servings: 1}
//	      - {id: butter, servings: 1}
type document struct {
	Foods []foodRecord `yaml:"foods"`
}

type foodRecord struct {
	ID         string            `yaml:"id"`
	Name       string            `yaml:"name"`
	Type       string            `yaml:"type"`
	Keywords   []string          `yaml:"keywords"`
	Calories   int               `yaml:"calories"`
	Components []componentRecord `yaml:"components"`
}

type componentRecord struct {
	ID       string `yaml:"id"`
	Servings int    `yaml:"servings"`
}

// Decode parses a YAML or JSON food document. A record is composite when it
// says type: composite or lists components.
func Decode(data []byte) ([]domain.Food, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse food document: %w", err)
	}

	foods := make([]domain.Food, 0, len(doc.Foods))
	for i, rec := range doc.Foods {
		if rec.ID == "" {
			return nil, fmt.Errorf("food %d: missing id", i)
		}
		if rec.Name == "" {
			rec.Name = rec.ID
		}

		kind := strings.ToLower(rec.Type)
		switch {
		case kind == "composite" || (kind == "" && len(rec.Components) > 0):
			components := make([]domain.Component, 0, len(rec.Components))
			for _, c := range rec.Components {
				if c.ID == "" || c.Servings <= 0 {
					return nil, fmt.Errorf("food %q: invalid component %+v", rec.ID, c)
				}
				components = append(components, domain.Component{FoodID: c.ID, Servings: c.Servings})
			}
			foods = append(foods, domain.NewCompositeFood(rec.ID, rec.Name, rec.Keywords, components))
		case kind == "basic" || kind == "":
			if rec.Calories < 0 {
				return nil, fmt.Errorf("food %q: negative calories", rec.ID)
			}
			foods = append(foods, domain.NewBasicFood(rec.ID, rec.Name, rec.Keywords, rec.Calories))
		default:
			return nil, fmt.Errorf("food %q: unknown type %q", rec.ID, rec.Type)
		}
	}
	return foods, nil
}
