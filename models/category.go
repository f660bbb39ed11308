package models

import (
	"encoding/json"
	"strings"
)

type Category string

const (
	CategoryTechnology    Category = "Technology"
	CategoryProgramming   Category = "Programming"
	CategoryScience       Category = "Science"
	CategoryHealth        Category = "Health"
	CategoryTravel        Category = "Travel"
	CategoryFood          Category = "Food"
	CategoryLifestyle     Category = "Lifestyle"
	CategoryBusiness      Category = "Business"
	CategoryFinance       Category = "Finance"
	CategoryEducation     Category = "Education"
	CategoryEntertainment Category = "Entertainment"
	CategorySports        Category = "Sports"
	CategoryArt           Category = "Art"
	CategoryOther         Category = "Other"
)

var Categories = []Category{
	CategoryTechnology, CategoryProgramming, CategoryScience, CategoryHealth,
	CategoryTravel, CategoryFood, CategoryLifestyle, CategoryBusiness,
	CategoryFinance, CategoryEducation, CategoryEntertainment, CategorySports,
	CategoryArt, CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches case-insensitively and returns the canonical spelling.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, known := range Categories {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return "", false
}

// UnmarshalJSON canonicalizes known names and keeps unknown input verbatim so
// validation can report it.
func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if known, ok := ParseCategory(s); ok {
		*c = known
		return nil
	}
	*c = Category(s)
	return nil
}
