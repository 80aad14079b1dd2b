package domain

import (
	"errors"
	"sort"
	"strings"
)

// ErrEmptyPalette is returned when colors are assigned from an empty palette.
var ErrEmptyPalette = errors.New("palette has no colors")

// MixedSeparator marks a category combining several fuels, e.g. "Gaz/Fioul".
const MixedSeparator = "/"

// Palette is an ordered list of marker color names.
type Palette []string

// ColorEntry pairs a category with its color.
type ColorEntry struct {
	Category string
	Color    string
}

// CategoryColorMap is an ordered, read-only category to color mapping.
type CategoryColorMap struct {
	entries []ColorEntry
	index   map[string]string
}

func newCategoryColorMap(entries []ColorEntry) CategoryColorMap {
	index := make(map[string]string, len(entries))
	for _, e := range entries {
		index[e.Category] = e.Color
	}
	return CategoryColorMap{entries: entries, index: index}
}

// Color returns the color assigned to category.
func (m CategoryColorMap) Color(category string) (string, bool) {
	c, ok := m.index[category]
	return c, ok
}

// Entries returns a copy of the mapping in legend order.
func (m CategoryColorMap) Entries() []ColorEntry {
	out := make([]ColorEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of categories.
func (m CategoryColorMap) Len() int { return len(m.entries) }

// AssignColors sorts the distinct categories ascending and gives the i-th one
// palette[i % len(palette)]. More categories than colors wrap around.
func AssignColors(categories []string, palette Palette) (CategoryColorMap, error) {
	if len(palette) == 0 {
		return CategoryColorMap{}, ErrEmptyPalette
	}

	sorted := distinctSorted(categories)
	entries := make([]ColorEntry, len(sorted))
	for i, c := range sorted {
		entries[i] = ColorEntry{Category: c, Color: palette[i%len(palette)]}
	}
	return newCategoryColorMap(entries), nil
}

// AssignPinnedColors keeps the pinned entries in their declared order, then
// appends the remaining observed categories, sorted, with the fallback color.
func AssignPinnedColors(categories []string, pinned []ColorEntry, fallback string) (CategoryColorMap, error) {
	if fallback == "" && len(pinned) == 0 {
		return CategoryColorMap{}, ErrEmptyPalette
	}

	entries := make([]ColorEntry, 0, len(pinned)+len(categories))
	known := make(map[string]struct{}, len(pinned))
	for _, p := range pinned {
		entries = append(entries, p)
		known[p.Category] = struct{}{}
	}
	for _, c := range distinctSorted(categories) {
		if _, ok := known[c]; ok {
			continue
		}
		entries = append(entries, ColorEntry{Category: c, Color: fallback})
	}
	return newCategoryColorMap(entries), nil
}

// ColorsFor assigns colors to the table's categories using its family style.
func ColorsFor(t Table) (CategoryColorMap, error) {
	s := t.Family.Style()
	if len(s.Pinned) > 0 {
		return AssignPinnedColors(t.Categories(), s.Pinned, s.Fallback)
	}
	return AssignColors(t.Categories(), s.Palette)
}

// IsMixed reports whether the category combines several values.
func IsMixed(category string) bool {
	return strings.Contains(category, MixedSeparator)
}

func distinctSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
