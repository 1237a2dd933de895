package domain

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Category is one of the fixed insurance domains used to tag segments and route retrieval.
type Category string

const (
	CategoryInjury    Category = "상해보험"
	CategoryProperty  Category = "손해보험"
	CategoryPension   Category = "연금보험"
	CategoryVehicle   Category = "자동차보험"
	CategoryDisease   Category = "질병보험"
	CategoryLiability Category = "책임보험"
	CategoryFire      Category = "화재보험"
)

// DefaultCategory is returned when neither the model nor the keyword table resolves a question.
const DefaultCategory = CategoryDisease

const vehicleMarker = "자동차"

var allCategories = []Category{
	CategoryInjury,
	CategoryProperty,
	CategoryPension,
	CategoryVehicle,
	CategoryDisease,
	CategoryLiability,
	CategoryFire,
}

// AllCategories returns the closed category set in prompt order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

func (c Category) String() string {
	return string(c)
}

func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// UsesVehicleGrammar reports whether documents of this category follow the four-level hierarchy.
func (c Category) UsesVehicleGrammar() bool {
	return strings.Contains(string(c), vehicleMarker)
}

func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.TrimSpace(norm.NFC.String(raw)))
	if !c.Valid() {
		return "", false
	}
	return c, true
}

// ParseCategoryFromIdentifier extracts the category embedded as `<prefix>_<category>_<suffix>`
// in a document identifier such as "001_상해보험_가공.xml".
func ParseCategoryFromIdentifier(identifier string) (Category, error) {
	base := norm.NFC.String(filepath.Base(strings.TrimSpace(identifier)))
	base = strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.Split(base, "_")
	// The category must be enclosed by underscores on both sides.
	for i := 1; i < len(parts)-1; i++ {
		if c, ok := ParseCategory(parts[i]); ok {
			return c, nil
		}
	}
	return "", WrapError(ErrIdentifierParse, "parse document identifier", fmt.Errorf("no category in %q", identifier))
}
