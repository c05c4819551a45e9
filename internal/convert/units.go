// Package convert implements the stateless conversion utilities: parsing
// free-text conversion queries and converting between units, temperature
// scales and (via the rates package) currencies.
package convert

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrUnsupportedUnit = errors.New("unsupported unit conversion")

var (
	currencyRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([a-zA-Z]{3})\s+to\s+([a-zA-Z]{3})`)
	unitRe     = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([a-zA-Z ]+?)\s+to\s+([a-zA-Z ]+)`)
)

// unitAliases maps spoken forms onto canonical unit keys.
var unitAliases = map[string][]string{
	"kg":     {"kg", "kilogram", "kilograms"},
	"lbs":    {"lbs", "lb", "pound", "pounds"},
	"g":      {"g", "gram", "grams"},
	"oz":     {"oz", "ounce", "ounces"},
	"m":      {"m", "meter", "meters"},
	"ft":     {"ft", "foot", "feet"},
	"cm":     {"cm", "centimeter", "centimeters"},
	"in":     {"in", "inch", "inches"},
	"km":     {"km", "kilometer", "kilometers"},
	"mi":     {"mi", "mile", "miles"},
	"l":      {"l", "liter", "liters"},
	"gal":    {"gal", "gallon", "gallons"},
	"ml":     {"ml", "milliliter", "milliliters"},
	"fl oz":  {"fl oz", "fluid ounce", "fluid ounces"},
	"km/h":   {"km/h", "kilometers per hour"},
	"mph":    {"mph", "miles per hour"},
	"m/s":    {"m/s", "meters per second"},
	"ft/s":   {"ft/s", "feet per second"},
	"c":      {"c", "celsius", "degree celsius"},
	"f":      {"f", "fahrenheit", "degree fahrenheit"},
	"k":      {"k", "kelvin"},
}

// unitFactors holds the linear pair conversions.
var unitFactors = map[[2]string]float64{
	{"kg", "lbs"}:    2.20462,
	{"lbs", "kg"}:    0.453592,
	{"g", "oz"}:      0.035274,
	{"oz", "g"}:      28.3495,
	{"m", "ft"}:      3.28084,
	{"ft", "m"}:      0.3048,
	{"cm", "in"}:     0.393701,
	{"in", "cm"}:     2.54,
	{"km", "mi"}:     0.621371,
	{"mi", "km"}:     1.60934,
	{"l", "gal"}:     0.264172,
	{"gal", "l"}:     3.78541,
	{"ml", "fl oz"}:  0.033814,
	{"fl oz", "ml"}:  29.5735,
	{"km/h", "mph"}:  0.621371,
	{"mph", "km/h"}:  1.60934,
	{"m/s", "ft/s"}:  3.28084,
	{"ft/s", "m/s"}:  0.3048,
}

// ParseCurrencyQuery extracts an "<amount> <CUR> to <CUR>" query. Currency
// codes are upper-cased; ok is false when the text has a different shape.
func ParseCurrencyQuery(text string) (amount float64, from, to string, ok bool) {
	m := currencyRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, "", "", false
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", "", false
	}
	return amount, strings.ToUpper(m[2]), strings.ToUpper(m[3]), true
}

// ParseUnitQuery extracts an "<amount> <unit> to <unit>" query, resolving
// spoken unit names against the alias table. ok is false when the text has a
// different shape or either unit is unknown.
func ParseUnitQuery(text string) (amount float64, from, to string, ok bool) {
	m := unitRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, "", "", false
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", "", false
	}
	from, okFrom := canonicalUnit(m[2])
	to, okTo := canonicalUnit(m[3])
	if !okFrom || !okTo {
		return 0, "", "", false
	}
	return amount, from, to, true
}

func canonicalUnit(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for key, aliases := range unitAliases {
		for _, a := range aliases {
			if s == a {
				return key, true
			}
		}
	}
	return "", false
}

// IsTemperature reports whether the canonical unit is a temperature scale.
func IsTemperature(u string) bool {
	return u == "c" || u == "f" || u == "k"
}

// ConvertUnit converts amount between two canonical units. For linear pairs
// the returned rate is the multiplication factor; temperature conversions
// are affine, so their rate is zero.
func ConvertUnit(amount float64, from, to string) (result, rate float64, err error) {
	if f, ok := unitFactors[[2]string{from, to}]; ok {
		return amount * f, f, nil
	}

	switch {
	case from == "c" && to == "f":
		return amount*9/5 + 32, 0, nil
	case from == "f" && to == "c":
		return (amount - 32) * 5 / 9, 0, nil
	case from == "c" && to == "k":
		return amount + 273.15, 0, nil
	case from == "k" && to == "c":
		return amount - 273.15, 0, nil
	case from == "f" && to == "k":
		return (amount-32)*5/9 + 273.15, 0, nil
	case from == "k" && to == "f":
		return (amount-273.15)*9/5 + 32, 0, nil
	}

	return 0, 0, fmt.Errorf("%w: %s to %s", ErrUnsupportedUnit, from, to)
}
