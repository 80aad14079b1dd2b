// Package render turns normalized plant tables into a single self-contained
// Leaflet map: one layer per family, one marker cluster per category and a
// static legend.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/edf-plant-map/internal/domain"
	"github.com/goccy/go-json"
)

//go:embed templates/map.html.tmpl
var templates embed.FS

// PopupMaxWidth bounds the width of marker popups, in pixels.
const PopupMaxWidth = 300

var mapTemplate = template.Must(template.New("map.html.tmpl").Funcs(template.FuncMap{
	"toJSON": toJSON,
}).ParseFS(templates, "templates/map.html.tmpl"))

// Field is one labelled line of a marker popup.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Marker is a single georeferenced plant.
type Marker struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Tooltip string  `json:"tooltip"`
	Title   string  `json:"title"`
	Fields  []Field `json:"fields"`
	Icon    string  `json:"icon"`
	Prefix  string  `json:"prefix"`
	Color   string  `json:"color"`
}

// Cluster groups the markers of one category.
type Cluster struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Color    string   `json:"color"`
	Swatch   Swatch   `json:"swatch"`
	Markers  []Marker `json:"markers"`
}

// Layer holds the clusters of one family.
type Layer struct {
	Name     string        `json:"name"`
	Family   domain.Family `json:"family"`
	Clusters []Cluster     `json:"clusters"`
	// Rows counts every record of the table; Skipped those without coordinates.
	Rows    int `json:"rows"`
	Skipped int `json:"skipped"`
}

// LegendEntry shows the color and glyph of one category.
type LegendEntry struct {
	Category string
	Label    string
	Icon     string
	Prefix   string
	Color    string
	Swatch   Swatch
}

// LegendSection lists the entries of one family.
type LegendSection struct {
	Family  domain.Family
	Title   string
	Entries []LegendEntry
}

// Document is everything drawn on the map.
type Document struct {
	Title       string
	CenterLat   float64
	CenterLon   float64
	Zoom        int
	Layers      []Layer
	Legend      []LegendSection
	GeneratedAt time.Time
}

// NewDocument creates an empty map centered on the given viewport.
func NewDocument(centerLat, centerLon float64, zoom int, generatedAt time.Time) *Document {
	return &Document{
		Title:       "Centrales de production EDF",
		CenterLat:   centerLat,
		CenterLon:   centerLon,
		Zoom:        zoom,
		GeneratedAt: generatedAt,
	}
}

// Add appends the table as a layer together with its legend section.
func (d *Document) Add(t domain.Table, colors domain.CategoryColorMap) {
	d.Layers = append(d.Layers, BuildLayer(t, colors))
	d.Legend = append(d.Legend, BuildLegend(t.Family, colors))
}

// MarkerCount returns the number of markers across all layers.
func (d *Document) MarkerCount() int {
	n := 0
	for _, l := range d.Layers {
		n += l.MarkerCount()
	}
	return n
}

// ClusterCount returns the number of clusters across all layers.
func (d *Document) ClusterCount() int {
	n := 0
	for _, l := range d.Layers {
		n += len(l.Clusters)
	}
	return n
}

// MarkerCount returns the number of markers in the layer.
func (l Layer) MarkerCount() int {
	n := 0
	for _, c := range l.Clusters {
		n += len(c.Markers)
	}
	return n
}

// BuildLayer creates one cluster per observed category, in sorted order, and
// places a marker for every row carrying both coordinates.
func BuildLayer(t domain.Table, colors domain.CategoryColorMap) Layer {
	style := t.Family.Style()
	categories := t.Categories()

	layer := Layer{
		Name:     style.LayerName,
		Family:   t.Family,
		Clusters: make([]Cluster, len(categories)),
		Rows:     t.Len(),
	}

	index := make(map[string]int, len(categories))
	for i, cat := range categories {
		color := colorOf(t.Family, colors, cat)
		layer.Clusters[i] = Cluster{
			Name:     t.Family.ClusterName(cat),
			Category: cat,
			Color:    color,
			Swatch:   SwatchFor(color),
			Markers:  []Marker{},
		}
		index[cat] = i
	}

	for _, r := range t.Records {
		if !r.HasCoordinates() {
			layer.Skipped++
			continue
		}
		c := &layer.Clusters[index[r.CategoryKey()]]
		c.Markers = append(c.Markers, newMarker(r, c.Color))
	}
	return layer
}

// BuildLegend lists every category of the color map in its legend order.
func BuildLegend(family domain.Family, colors domain.CategoryColorMap) LegendSection {
	style := family.Style()
	sec := LegendSection{Family: family, Title: style.LayerName}
	for _, e := range colors.Entries() {
		sec.Entries = append(sec.Entries, LegendEntry{
			Category: e.Category,
			Label:    domain.CategoryLabel(e.Category),
			Icon:     family.IconFor(e.Category),
			Prefix:   style.IconPrefix,
			Color:    e.Color,
			Swatch:   SwatchFor(e.Color),
		})
	}
	return sec
}

func colorOf(family domain.Family, colors domain.CategoryColorMap, category string) string {
	if c, ok := colors.Color(category); ok {
		return c
	}
	if fb := family.Style().Fallback; fb != "" {
		return fb
	}
	return defaultMarkerColor
}

func newMarker(r domain.PlantRecord, color string) Marker {
	style := r.Family.Style()
	return Marker{
		Lat:     *r.Lat,
		Lon:     *r.Lon,
		Tooltip: r.DisplayName(),
		Title:   r.DisplayName(),
		Fields:  popupFields(r),
		Icon:    r.Family.IconFor(r.CategoryKey()),
		Prefix:  style.IconPrefix,
		Color:   color,
	}
}

func popupFields(r domain.PlantRecord) []Field {
	power := r.CapacityLabel()

	switch r.Family {
	case domain.Hydraulic:
		return []Field{
			{"Type", r.Type},
			{"Filière", domain.Text(r.Sector)},
			{"Puissance", power},
			{"Catégorie", domain.Text(r.Category)},
			{"Département", domain.Text(r.Department)},
			{"Commune", domain.Text(r.Commune)},
			{"Année de mise en service", r.CommissioningYearLabel()},
		}
	case domain.Nuclear:
		return []Field{
			{"Type", r.Type},
			{"Filière", domain.Text(r.Sector)},
			{"Puissance", power},
			{"Type de réacteur", domain.Text(r.Category)},
			{"Combustible", domain.Text(r.Fuel)},
			{"Région", domain.Text(r.Region)},
			{"Date de mise en service", domain.Text(r.CommissioningDate)},
		}
	default:
		return []Field{
			{"Type", domain.Text(r.Sector)},
			{"Sous-type", domain.Text(r.SubSector)},
			{"Combustible", domain.Text(r.Fuel)},
			{"Puissance", power},
			{"Région", domain.Text(r.Region)},
			{"Département", domain.Text(r.Department)},
			{"Commune", domain.Text(r.Commune)},
			{"Date de mise en service", domain.Text(r.CommissioningDate)},
		}
	}
}

// mapData is the payload read by the page script.
type mapData struct {
	Center        [2]float64 `json:"center"`
	Zoom          int        `json:"zoom"`
	PopupMaxWidth int        `json:"popupMaxWidth"`
	Layers        []Layer    `json:"layers"`
}

// Render executes the map template into a complete HTML document.
func Render(d *Document) ([]byte, error) {
	layers := d.Layers
	if layers == nil {
		layers = []Layer{}
	}
	view := struct {
		*Document
		Data mapData
	}{
		Document: d,
		Data: mapData{
			Center:        [2]float64{d.CenterLat, d.CenterLon},
			Zoom:          d.Zoom,
			PopupMaxWidth: PopupMaxWidth,
			Layers:        layers,
		},
	}

	var buf bytes.Buffer
	if err := mapTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("execute map template: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes html to path through a temporary file in the same
// directory, so readers never observe a partial map.
func WriteFile(path string, html []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(html); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write map: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close map: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod map: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename map: %w", err)
	}
	return nil
}

// toJSON embeds v in a script block. go-json escapes <, > and & so the
// payload cannot close the surrounding element.
func toJSON(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil //nolint:gosec // HTML-escaped JSON
}
