// Package category groups equipment parts for display by keyword rules.
// It has no influence on cost decisions.
package category

import (
	"sort"
	"strings"
)

// Category is a display group
type Category string

const (
	Weapon    Category = "weapon"
	Armor     Category = "armor"
	Accessory Category = "accessory"
)

// Rule assigns Category to any name containing one of Keywords
type Rule struct {
	Category Category `json:"category" toml:"category"`
	Keywords []string `json:"keywords" toml:"keywords"`
}

// Classifier applies rules in order; the first match wins.
type Classifier struct {
	rules    []Rule
	fallback Category
	order    map[Category]int
}

// DefaultRules returns the built-in weapon and accessory keyword lists.
// Everything else falls back to armor.
func DefaultRules() []Rule {
	return []Rule{
		{Category: Weapon, Keywords: []string{"臂甲", "長劍", "巨劍", "短劍", "法杖", "弓", "法書", "法珠", "釘錘", "盾"}},
		{Category: Accessory, Keywords: []string{"戒指", "耳環", "項鍊", "腰帶"}},
	}
}

// DefaultOrder is the display order of the built-in categories
func DefaultOrder() []Category {
	return []Category{Weapon, Armor, Accessory}
}

// New creates a classifier. order lists categories for display sorting;
// categories not in it sort last in name order.
func New(rules []Rule, fallback Category, order []Category) *Classifier {
	c := &Classifier{
		rules:    append([]Rule(nil), rules...),
		fallback: fallback,
		order:    make(map[Category]int, len(order)),
	}
	for i, cat := range order {
		c.order[cat] = i
	}
	return c
}

// Default returns the built-in classifier
func Default() *Classifier {
	return New(DefaultRules(), Armor, DefaultOrder())
}

// Classify returns the category of name
func (c *Classifier) Classify(name string) Category {
	name = strings.TrimSpace(name)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(name, kw) {
				return r.Category
			}
		}
	}
	return c.fallback
}

// Sort orders categories for display in place
func (c *Classifier) Sort(cats []Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		oi, iok := c.order[cats[i]]
		oj, jok := c.order[cats[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return cats[i] < cats[j]
		}
	})
}
