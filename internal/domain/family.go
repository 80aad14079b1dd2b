package domain

// Family identifies one EDF dataset family.
type Family string

const (
	Hydraulic Family = "hydraulic"
	Nuclear   Family = "nuclear"
	Thermal   Family = "thermal"
)

// Families lists every family in processing order.
var Families = []Family{Hydraulic, Nuclear, Thermal}

// Style describes how a family is presented on the map.
type Style struct {
	// DisplayName is the French label used in record types and cluster names.
	DisplayName string
	// LayerName names the map layer holding the family's clusters.
	LayerName string
	// Icon and IconPrefix select the marker glyph ("glyphicon" or "fa").
	Icon       string
	IconPrefix string
	// MixedIcon replaces Icon for mixed categories. Empty when unused.
	MixedIcon string
	// Palette is cycled over the sorted categories.
	Palette Palette
	// Pinned colors take precedence over Palette, in legend order.
	Pinned []ColorEntry
	// Fallback colors categories missing from Pinned.
	Fallback string
}

var styles = map[Family]Style{
	Hydraulic: {
		DisplayName: "Hydraulique",
		LayerName:   "Centrales Hydrauliques",
		Icon:        "tint",
		IconPrefix:  "glyphicon",
		Pinned: []ColorEntry{
			{Category: "Lac", Color: "blue"},
			{Category: "Fil de l'eau", Color: "green"},
			{Category: "Eclusée", Color: "orange"},
			{Category: "Pompage pur", Color: "red"},
			{Category: "Pompage mixte", Color: "purple"},
		},
		Fallback: "blue",
	},
	Nuclear: {
		DisplayName: "Nucléaire",
		LayerName:   "Centrales Nucléaires",
		Icon:        "bolt",
		IconPrefix:  "fa",
		Palette:     Palette{"red", "darkred", "purple", "darkpurple"},
	},
	Thermal: {
		DisplayName: "Thermique",
		LayerName:   "Centrales Thermiques",
		Icon:        "fire",
		IconPrefix:  "fa",
		MixedIcon:   "industry",
		Palette:     Palette{"green", "orange", "pink", "lightred", "beige", "lightgreen"},
	},
}

// Style returns the presentation settings of the family.
func (f Family) Style() Style {
	return styles[f]
}

// Valid reports whether f is one of the known families.
func (f Family) Valid() bool {
	_, ok := styles[f]
	return ok
}

// GPSField returns the name of the nested coordinate column for the family.
func (f Family) GPSField() string {
	if f == Hydraulic {
		return "point_gps_wsg_84"
	}
	return "point_gps_wsg84"
}

// IconFor returns the marker glyph for a category of this family.
func (f Family) IconFor(category string) string {
	s := f.Style()
	if s.MixedIcon != "" && IsMixed(category) {
		return s.MixedIcon
	}
	return s.Icon
}

// ClusterName returns the display name of the cluster holding category.
// All mixed thermal fuels share the "Mixte" name.
func (f Family) ClusterName(category string) string {
	s := f.Style()
	if f == Thermal && IsMixed(category) {
		return s.DisplayName + " - Mixte"
	}
	return s.DisplayName + " - " + CategoryLabel(category)
}
