package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMissingResults is returned when a response carries no `results` key.
var ErrMissingResults = errors.New("response has no results")

// Normalize maps every raw record of resp into a PlantRecord of the given
// family. No record is dropped; malformed coordinates become nil.
func Normalize(family Family, resp Response) (Table, error) {
	if !family.Valid() {
		return Table{}, fmt.Errorf("normalize: unknown family %q", family)
	}
	if resp.Results == nil {
		return Table{}, fmt.Errorf("normalize %s: %w", family, ErrMissingResults)
	}

	results := *resp.Results
	now := clock.Now().UTC()
	records := make([]PlantRecord, 0, len(results))
	for _, raw := range results {
		rec := NormalizeRecord(family, raw)
		rec.FetchedAt = now
		records = append(records, rec)
	}

	return Table{Family: family, TotalCount: resp.TotalCount, Records: records}, nil
}

// NormalizeRecord maps a single raw record. The field set depends on the family.
func NormalizeRecord(family Family, raw RawRecord) PlantRecord {
	lat, lon := extractGPS(raw, family.GPSField())

	rec := PlantRecord{
		Family:     family,
		Type:       family.Style().DisplayName,
		Name:       stringField(raw, "centrale"),
		Sector:     stringField(raw, "filiere"),
		CapacityMW: floatField(raw, "puissance_installee"),
		Lat:        lat,
		Lon:        lon,
	}
	// Values present but not numeric keep their source text.
	if rec.CapacityMW == nil {
		rec.CapacityText = stringField(raw, "puissance_installee")
	}

	switch family {
	case Hydraulic:
		rec.Category = stringField(raw, "categorie_centrale")
		rec.Department = stringField(raw, "departement")
		rec.Commune = stringField(raw, "commune")
		rec.CommissioningYear = intField(raw, "annee_de_mise_en_service")
		if rec.CommissioningYear == nil {
			rec.CommissioningYearText = stringField(raw, "annee_de_mise_en_service")
		}
	case Nuclear:
		rec.Category = stringField(raw, "sous_filiere")
		rec.Fuel = stringField(raw, "combustible")
		rec.CommissioningDate = stringField(raw, "date_de_mise_en_service_industrielle")
		rec.Region = stringField(raw, "region")
	case Thermal:
		rec.Unit = stringField(raw, "tranche")
		rec.SubSector = stringField(raw, "sous_filiere")
		rec.Fuel = stringField(raw, "combustible")
		rec.CommissioningDate = stringField(raw, "date_de_mise_en_service_industrielle")
		rec.Region = stringField(raw, "region")
		rec.Department = stringField(raw, "departement")
		rec.Commune = stringField(raw, "commune")
	}

	rec.ID = RecordID(rec)
	return rec
}

// extractGPS reads {"lat": n, "lon": n} from the named column. Both values
// are nil unless the column is an object with two finite numbers.
func extractGPS(raw RawRecord, field string) (*float64, *float64) {
	var point map[string]any
	switch v := raw[field].(type) {
	case map[string]any:
		point = v
	case RawRecord:
		point = v
	default:
		return nil, nil
	}
	lat, latOK := point["lat"].(float64)
	lon, lonOK := point["lon"].(float64)
	if !latOK || !lonOK || !finite(lat) || !finite(lon) {
		return nil, nil
	}
	return &lat, &lon
}

// stringField returns strings as-is and formats numbers and booleans.
// Absent, null and composite values yield nil.
func stringField(raw RawRecord, key string) *string {
	var s string
	switch v := raw[key].(type) {
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	default:
		return nil
	}
	return &s
}

// floatField accepts numbers and numeric strings.
func floatField(raw RawRecord, key string) *float64 {
	var f float64
	switch v := raw[key].(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if !finite(f) {
		return nil
	}
	return &f
}

// intField accepts integral numbers within int32 range and integer strings,
// e.g. "1958".
func intField(raw RawRecord, key string) *int {
	var n int
	switch v := raw[key].(type) {
	case float64:
		if !finite(v) || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return nil
		}
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	return &n
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
