package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/dataset"
)

// Query string parameters.
const (
	ParamArms       = "arms"
	ParamDoses      = "doses"
	ParamTumorTypes = "tumor_types"
)

// InvalidInputError is a client error: a filter value that cannot be parsed.
type InvalidInputError struct {
	Param string
	Value string
	Err   error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s value %q", e.Param, e.Value)
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// Filter restricts rows by column membership. A nil set puts no restriction
// on its column; a non-nil empty set matches nothing.
type Filter struct {
	Arms       map[string]struct{}
	Doses      map[int64]struct{}
	TumorTypes map[string]struct{}
}

// Parse builds a Filter from comma-separated query values. Absent and empty
// parameters are unrestricted. Dose tokens must be base-10 integers.
func Parse(values url.Values) (Filter, error) {
	var f Filter

	if raw := values.Get(ParamArms); raw != "" {
		f.Arms = stringSet(raw)
	}

	if raw := values.Get(ParamDoses); raw != "" {
		doses := make(map[int64]struct{})
		for _, tok := range strings.Split(raw, ",") {
			dose, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 64)
			if err != nil {
				return Filter{}, &InvalidInputError{Param: ParamDoses, Value: tok, Err: err}
			}
			doses[dose] = struct{}{}
		}
		f.Doses = doses
	}

	if raw := values.Get(ParamTumorTypes); raw != "" {
		f.TumorTypes = stringSet(raw)
	}

	return f, nil
}

// empty tokens are dropped so they never match a row with a missing cell
func stringSet(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Split(raw, ",") {
		if tok == "" {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

// Active reports whether any column is restricted.
func (f Filter) Active() bool {
	return f.Arms != nil || f.Doses != nil || f.TumorTypes != nil
}

// Apply keeps the rows passing every restriction, in their original order:
// arms, then doses, then tumor types. The result is never nil.
func (f Filter) Apply(rows []dataset.Row) []dataset.Row {
	out := make([]dataset.Row, 0, len(rows))
	out = append(out, rows...)

	if f.Arms != nil {
		out = keep(out, func(r dataset.Row) bool {
			_, ok := f.Arms[r.Arm]
			return ok
		})
	}
	if f.Doses != nil {
		out = keep(out, func(r dataset.Row) bool {
			if !r.HasDose {
				return false
			}
			_, ok := f.Doses[r.Dose]
			return ok
		})
	}
	if f.TumorTypes != nil {
		out = keep(out, func(r dataset.Row) bool {
			_, ok := f.TumorTypes[r.TumorType]
			return ok
		})
	}
	return out
}

// keep filters rows in place.
func keep(rows []dataset.Row, pred func(dataset.Row) bool) []dataset.Row {
	n := 0
	for _, r := range rows {
		if pred(r) {
			rows[n] = r
			n++
		}
	}
	return rows[:n]
}
