// Package gamp implements deterministic GAMP-5 software categorization.
// It provides the indicator scorer that maps URS document text to a
// category prediction with supporting evidence, and the confidence
// calculator that converts that evidence into a calibrated scalar score.
package gamp

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Category is a GAMP-5 software category. Category 2 was retired by the
// GAMP-5 second edition and is intentionally absent.
type Category int

// Valid GAMP-5 software categories.
const (
	CategoryInfrastructure Category = 1 // infrastructure software
	CategoryNonConfigured  Category = 3 // non-configured products
	CategoryConfigured     Category = 4 // configured products
	CategoryCustom         Category = 5 // custom applications
)

// Categories returns all valid categories in ascending numeric order.
func Categories() []Category {
	return []Category{
		CategoryInfrastructure,
		CategoryNonConfigured,
		CategoryConfigured,
		CategoryCustom,
	}
}

// Valid reports whether c is one of the four defined categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryInfrastructure, CategoryNonConfigured, CategoryConfigured, CategoryCustom:
		return true
	}
	return false
}

// String returns the category as its numeric label, e.g. "5".
func (c Category) String() string {
	return strconv.Itoa(int(c))
}

// Name returns the descriptive GAMP-5 name for the category.
func (c Category) Name() string {
	switch c {
	case CategoryInfrastructure:
		return "Infrastructure Software"
	case CategoryNonConfigured:
		return "Non-Configured Products"
	case CategoryConfigured:
		return "Configured Products"
	case CategoryCustom:
		return "Custom Applications"
	}
	return "Unknown"
}

// ParseCategory validates an integer as a known GAMP category.
func ParseCategory(n int) (Category, error) {
	c := Category(n)
	if !c.Valid() {
		return 0, fmt.Errorf("invalid GAMP category: %d", n)
	}
	return c, nil
}

// MarshalJSON serializes the category as its numeric value.
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(c))
}

// UnmarshalJSON validates that the decoded number is a known category.
func (c *Category) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	parsed, err := ParseCategory(n)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
