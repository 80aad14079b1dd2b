package domain

import "strconv"

// Unavailable is displayed in place of absent values.
const Unavailable = "n/d"

// UnknownCategory labels records whose category column is absent.
const UnknownCategory = "Non renseigné"

// Text returns the value or Unavailable.
func Text(v *string) string {
	if v == nil {
		return Unavailable
	}
	return *v
}

// Number formats a float without trailing zeros, or Unavailable.
func Number(v *float64) string {
	if v == nil {
		return Unavailable
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Year formats an int, or Unavailable.
func Year(v *int) string {
	if v == nil {
		return Unavailable
	}
	return strconv.Itoa(*v)
}

// CategoryLabel returns the display label of a category key.
func CategoryLabel(category string) string {
	if category == "" {
		return UnknownCategory
	}
	return category
}
