package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// RawRecord is one loosely typed element of an API `results` array.
type RawRecord map[string]any

// Dataset binds a family to the records endpoint serving it.
type Dataset struct {
	Family Family
	URL    string
}

// Response is a decoded records page.
type Response struct {
	TotalCount int          `json:"total_count"`
	Results    *[]RawRecord `json:"results"` // nil when the key is absent
}

// PlantRecord is the flat row produced for every source record.
// Optional fields are nil when absent from the source.
type PlantRecord struct {
	ID     string `json:"id"`
	Family Family `json:"family"`
	Type   string `json:"type"`

	Name      *string `json:"name"`
	Unit      *string `json:"unit,omitempty"`
	Sector    *string `json:"sector"`
	Category  *string `json:"category,omitempty"`
	SubSector *string `json:"sub_sector,omitempty"`
	Fuel      *string `json:"fuel,omitempty"`

	CapacityMW        *float64 `json:"capacity_mw"`
	CommissioningYear *int     `json:"commissioning_year,omitempty"`
	CommissioningDate *string  `json:"commissioning_date,omitempty"`

	// Source text of a capacity or year that is present but not numeric.
	CapacityText          *string `json:"capacity_text,omitempty"`
	CommissioningYearText *string `json:"commissioning_year_text,omitempty"`

	Region     *string `json:"region,omitempty"`
	Department *string `json:"department,omitempty"`
	Commune    *string `json:"commune,omitempty"`

	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`

	FetchedAt time.Time `json:"fetched_at"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (r PlantRecord) HasCoordinates() bool {
	return r.Lat != nil && r.Lon != nil
}

// CategoryKey returns the value records of this family are grouped by:
// categorie_centrale/sous_filiere for hydraulic/nuclear, fuel for thermal.
// Absent values and explicit empty strings share the empty key.
func (r PlantRecord) CategoryKey() string {
	var v *string
	switch r.Family {
	case Thermal:
		v = r.Fuel
	default:
		v = r.Category
	}
	if v == nil {
		return ""
	}
	return *v
}

// DisplayName returns the marker tooltip: the plant name, suffixed with the
// unit for thermal records.
func (r PlantRecord) DisplayName() string {
	if r.Family == Thermal {
		return Text(r.Name) + " - " + Text(r.Unit)
	}
	return Text(r.Name)
}

// CapacityLabel formats the installed capacity for display, falling back to
// the source text when the value was not numeric.
func (r PlantRecord) CapacityLabel() string {
	switch {
	case r.CapacityMW != nil:
		return Number(r.CapacityMW) + " MW"
	case r.CapacityText != nil:
		return *r.CapacityText
	default:
		return Unavailable
	}
}

// CommissioningYearLabel formats the commissioning year, falling back to the
// source text when the value was not an integer.
func (r PlantRecord) CommissioningYearLabel() string {
	if r.CommissioningYear == nil && r.CommissioningYearText != nil {
		return *r.CommissioningYearText
	}
	return Year(r.CommissioningYear)
}

// Table holds the normalized records of one dataset.
type Table struct {
	Family     Family
	TotalCount int
	Records    []PlantRecord
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Records) }

// Georeferenced returns the number of rows carrying both coordinates.
func (t Table) Georeferenced() int {
	n := 0
	for _, r := range t.Records {
		if r.HasCoordinates() {
			n++
		}
	}
	return n
}

// Categories returns the distinct category keys in ascending order.
func (t Table) Categories() []string {
	seen := make(map[string]struct{})
	for _, r := range t.Records {
		seen[r.CategoryKey()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// CategoryCounts returns the number of rows per category key.
func (t Table) CategoryCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range t.Records {
		counts[r.CategoryKey()]++
	}
	return counts
}

// RecordID produces a deterministic ID from the record's identifying fields.
func RecordID(r PlantRecord) string {
	input := fmt.Sprintf("%s|%s|%s|%s|%s", r.Family, Text(r.Name), Text(r.Unit), formatCoord(r.Lat), formatCoord(r.Lon))
	hash := sha256.Sum256([]byte(input))
	return string(r.Family) + "-" + hex.EncodeToString(hash[:8])
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.5f", *v)
}
