package render

import (
	"github.com/lucasb-eyer/go-colorful"
)

// markerColors maps Leaflet.awesome-markers color names to their fill.
var markerColors = map[string]string{
	"red":        "#d63e2a",
	"darkred":    "#a23336",
	"lightred":   "#ff8e7f",
	"orange":     "#f69730",
	"beige":      "#ffcb92",
	"green":      "#72b026",
	"darkgreen":  "#728224",
	"lightgreen": "#bbf970",
	"blue":       "#38aadd",
	"darkblue":   "#0067a3",
	"lightblue":  "#8adaff",
	"purple":     "#d252b9",
	"darkpurple": "#5b396b",
	"cadetblue":  "#436978",
	"pink":       "#ff91ea",
	"gray":       "#575757",
	"lightgray":  "#a3a3a3",
	"black":      "#303030",
	"white":      "#fbfbfb",
}

const defaultMarkerColor = "gray"

// Swatch holds the CSS colors drawn for a marker color name.
type Swatch struct {
	Fill string `json:"fill"`
	Ring string `json:"ring"`
	Text string `json:"text"`
}

var (
	white = colorful.Color{R: 1, G: 1, B: 1}
	black = colorful.Color{R: 0, G: 0, B: 0}
)

// SwatchFor resolves a marker color name. Unknown names render gray.
func SwatchFor(name string) Swatch {
	c := parseMarkerColor(name)

	text := white
	if l, _, _ := c.Lab(); l > 0.65 {
		text = black
	}
	return Swatch{
		Fill: c.Hex(),
		Ring: c.BlendLab(white, 0.4).Clamped().Hex(),
		Text: text.Hex(),
	}
}

func parseMarkerColor(name string) colorful.Color {
	hex, ok := markerColors[name]
	if !ok {
		hex = markerColors[defaultMarkerColor]
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{R: 0.34, G: 0.34, B: 0.34}
	}
	return c
}

// knownColor reports whether name is a marker color the icon set can draw.
func knownColor(name string) bool {
	_, ok := markerColors[name]
	return ok
}
