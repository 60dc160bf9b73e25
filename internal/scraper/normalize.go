package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
)

// yearRegexp captures the first plausible 4-digit model year in free text.
var yearRegexp = regexp.MustCompile(`(19|20)\d{2}`)

// ParsePrice converts a marketplace price string into a non-negative float.
// Currency symbols, spaces and thousands dots are stripped and the decimal
// comma converted, so "12.500,00 €" parses to 12500.0. Malformed input yields
// 0.0 instead of failing the scrape.
func ParsePrice(text string) float64 {
	cleaned := strings.NewReplacer("€", "", "EUR", "", ".", "", " ", "", " ", "").Replace(text)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	cleaned = strings.TrimSpace(cleaned)

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return 0.0
	}
	return v
}

// ParseKM converts a mileage string such as "120.000 km" into an integer
// kilometer count. Malformed input yields 0.
func ParseKM(text string) int {
	cleaned := strings.ToLower(text)
	cleaned = strings.NewReplacer("kms", "", "km", "", ".", "", ",", "", " ", "", " ", "").Replace(cleaned)
	cleaned = strings.TrimSpace(cleaned)

	v, err := strconv.Atoi(cleaned)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// ParseYear extracts the first 19xx/20xx token from free text, or 0 when
// absent.
func ParseYear(text string) int {
	match := yearRegexp.FindString(text)
	if match == "" {
		return 0
	}
	v, _ := strconv.Atoi(match)
	return v
}

// NormalizeFuel classifies a free-text fuel description into the closed
// vocabulary, defaulting to the catch-all bucket. Matching is by
// case-insensitive substring so both Spanish and English source labels
// classify the same way.
func NormalizeFuel(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "electr"):
		return entity.FuelElectric
	case strings.Contains(lower, "hibrid"), strings.Contains(lower, "híbrid"), strings.Contains(lower, "hybrid"):
		return entity.FuelHybrid
	case strings.Contains(lower, "diesel"), strings.Contains(lower, "diésel"):
		return entity.FuelDiesel
	case strings.Contains(lower, "gasolina"), strings.Contains(lower, "gasoline"), strings.Contains(lower, "petrol"), strings.Contains(lower, "benzin"):
		return entity.FuelGasoline
	case strings.Contains(lower, "glp"), strings.Contains(lower, "gnc"), strings.Contains(lower, "gas"):
		return entity.FuelGas
	default:
		return entity.FuelOther
	}
}

// NormalizeTransmission classifies a transmission description; anything that
// does not look automatic is manual.
func NormalizeTransmission(text string) string {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "auto") || strings.Contains(lower, "automát") {
		return entity.TransmissionAutomatic
	}
	return entity.TransmissionManual
}
