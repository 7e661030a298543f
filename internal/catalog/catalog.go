// Package catalog holds the static internship catalog that recommendations
// are drawn from.
package catalog

import (
	"fmt"
	"sort"
)

// Catalog is an immutable, indexed list of internships.
type Catalog struct {
	items    []Internship
	byID     map[string]int
	bySector map[string][]int
}

// New indexes items and assigns IDs. Rows that would collide get a numeric
// suffix so every ID is unique.
func New(items []Internship) *Catalog {
	c := &Catalog{
		items:    make([]Internship, 0, len(items)),
		byID:     make(map[string]int, len(items)),
		bySector: make(map[string][]int),
	}
	for _, it := range items {
		id := internshipID(it)
		for n := 2; ; n++ {
			if _, taken := c.byID[id]; !taken {
				break
			}
			id = fmt.Sprintf("%s-%d", internshipID(it), n)
		}
		it.ID = id
		idx := len(c.items)
		c.items = append(c.items, it)
		c.byID[id] = idx
		c.bySector[it.Sector] = append(c.bySector[it.Sector], idx)
	}
	return c
}

// Len reports the number of internships. A nil catalog is empty.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// All returns a copy of every internship in file order.
func (c *Catalog) All() []Internship {
	if c == nil {
		return nil
	}
	out := make([]Internship, len(c.items))
	copy(out, c.items)
	return out
}

// BySector returns internships whose sector equals sector exactly. A blank
// sector matches nothing.
func (c *Catalog) BySector(sector string) []Internship {
	if c == nil || sector == "" {
		return nil
	}
	idx := c.bySector[sector]
	out := make([]Internship, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.items[i])
	}
	return out
}

// Find looks up an internship by ID.
func (c *Catalog) Find(id string) (Internship, bool) {
	if c == nil {
		return Internship{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Internship{}, false
	}
	return c.items[i], true
}

// Sectors returns the sorted distinct non-empty sectors.
func (c *Catalog) Sectors() []string {
	return c.distinct(func(i Internship) string { return i.Sector })
}

// Locations returns the sorted distinct non-empty locations.
func (c *Catalog) Locations() []string {
	return c.distinct(func(i Internship) string { return i.Location })
}

// Documents returns the vectorizer input and the sector label per row.
// Rows without a sector are not training data.
func (c *Catalog) Documents() (docs []string, labels []string) {
	if c == nil {
		return nil, nil
	}
	docs = make([]string, 0, len(c.items))
	labels = make([]string, 0, len(c.items))
	for _, it := range c.items {
		if it.Sector == "" {
			continue
		}
		docs = append(docs, it.Document())
		labels = append(labels, it.Sector)
	}
	return docs, labels
}

func (c *Catalog) distinct(key func(Internship) string) []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, it := range c.items {
		k := key(it)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
