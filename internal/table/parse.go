package table

// parse.go turns raw cell text into typed values.
//
// Two levels of strictness are provided:
//   - Infer/FromStrings use strict parsing, so that loading a file only
//     types a column as numeric when every value is a plain number.
//   - ParseNumber/ParseTime/ParseBool accept the messy forms users paste
//     into spreadsheets (currency symbols, thousands separators, accounting
//     negatives, many date layouts) and back explicit type conversion.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future are
// assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling.
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		time.RFC3339Nano, time.RFC3339,
		"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02 15:04",
		"1/2/2006 15:04:05", "1/2/2006 15:04",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "02-Jan-2006",
		"20060102",
	}
)

// nullTokens are the cell spellings read as missing values.
var nullTokens = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "null": true,
	"none": true, "#n/a": true, "-nan": true, "<na>": true,
}

// IsNullToken reports whether s spells a missing value.
func IsNullToken(s string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(s))]
}

// ParseNumber converts messy numeric text to a float64.
// Handles currency symbols, thousands separators, and accounting format
// (parentheses for negative).
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseInteger converts numeric text to an int64. Values with a fractional
// part are rejected.
func ParseInteger(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	f, ok := ParseNumber(s)
	if !ok {
		return 0, false
	}
	return FloatToInt(f)
}

// FloatToInt converts f when it is integral and in int64 range.
func FloatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// ParseTime converts date or timestamp text using a list of common layouts
// and handles 2-digit years with a pivot.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseBool accepts true/false, yes/no, t/f, y/n and 1/0 in any case.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}

// Infer picks the narrowest column type that strictly parses every
// non-null raw value: int, then float, then bool (true/false only), then text.
func Infer(raw []string) Type {
	isInt, isFloat, isBool := true, true, true
	seen := false
	for _, s := range raw {
		if IsNullToken(s) {
			continue
		}
		seen = true
		s = strings.TrimSpace(s)
		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			l := strings.ToLower(s)
			if l != "true" && l != "false" {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return Text
		}
	}
	switch {
	case !seen:
		return Float
	case isInt:
		return Int
	case isFloat:
		return Float
	case isBool:
		return Bool
	}
	return Text
}

// FromStrings builds a column from raw cell text, inferring its type.
// Null tokens become nulls; text cells keep their original spelling.
func FromStrings(name string, raw []string) *Column {
	typ := Infer(raw)
	values := make([]any, len(raw))
	for i, s := range raw {
		if IsNullToken(s) {
			continue
		}
		switch typ {
		case Int:
			v, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			values[i] = v
		case Float:
			v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
			values[i] = v
		case Bool:
			values[i] = strings.EqualFold(strings.TrimSpace(s), "true")
		default:
			values[i] = s
		}
	}
	return &Column{Name: name, Type: typ, Values: values}
}
