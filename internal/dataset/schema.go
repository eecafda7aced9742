package dataset

import (
	"math"
	"strconv"
)

// Column names the query layer filters on.
const (
	ColumnArm       = "arm"
	ColumnDose      = "dose"
	ColumnTumorType = "tumor_type"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindString Kind = "string"
)

// Schema describes the structure of a loaded table.
type Schema struct {
	Columns []string
	Kinds   []Kind
}

// Index returns the position of a column or -1.
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// KindOf returns the kind of a named column, or "" when absent.
func (s Schema) KindOf(name string) Kind {
	if i := s.Index(name); i >= 0 {
		return s.Kinds[i]
	}
	return ""
}

// missing cell markers, matched exactly; the same set pandas treats as NA
var missingValues = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

func isMissing(cell string) bool {
	_, ok := missingValues[cell]
	return ok
}

// inferKind picks the narrowest kind every non-missing cell of a column fits.
// A column with no values at all is a string column.
func inferKind(cells []string) Kind {
	isInt, isFloat, isBool := true, true, true
	seen := false

	for _, c := range cells {
		if isMissing(c) {
			continue
		}
		seen = true

		if isInt {
			if _, err := strconv.ParseInt(c, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if f, err := strconv.ParseFloat(c, 64); err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := parseBool(c); !ok {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return KindString
		}
	}

	switch {
	case !seen:
		return KindString
	case isInt:
		return KindInt
	case isFloat:
		return KindFloat
	case isBool:
		return KindBool
	default:
		return KindString
	}
}

func parseBool(c string) (bool, bool) {
	switch c {
	case "True", "true", "TRUE":
		return true, true
	case "False", "false", "FALSE":
		return false, true
	}
	return false, false
}

// convert turns a raw cell into the native value for kind. Missing cells are nil.
// The caller guarantees the cell fits the kind.
func convert(cell string, kind Kind) interface{} {
	if isMissing(cell) && kind != KindString {
		return nil
	}
	switch kind {
	case KindInt:
		v, _ := strconv.ParseInt(cell, 10, 64)
		return v
	case KindFloat:
		v, _ := strconv.ParseFloat(cell, 64)
		return v
	case KindBool:
		v, _ := parseBool(cell)
		return v
	default:
		if isMissing(cell) {
			return nil
		}
		return cell
	}
}
