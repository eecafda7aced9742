package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrUnavailable wraps every failure to produce a table: the file is missing,
// unreadable, malformed, or lacks one of the filter columns.
var ErrUnavailable = errors.New("dataset unavailable")

// Table is a fully parsed dataset.
type Table struct {
	Schema Schema
	Rows   []Row
}

// CSVFile is the dataset backing every query. It is re-read on every Load.
type CSVFile struct {
	Path string
}

// Load opens and parses the file.
func (f CSVFile) Load(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer file.Close()

	table, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return table, nil
}

// Check reports whether the file can be opened for reading.
func (f CSVFile) Check() error {
	file, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return file.Close()
}

// Parse reads a header line followed by records. Short records are padded with
// missing cells; records longer than the header are an error.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no header row", ErrUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrUnavailable, err)
	}
	columns := normalizeHeader(header)

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		if len(rec) > len(columns) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: expected %d fields, saw %d", ErrUnavailable, line, len(columns), len(rec))
		}
		for len(rec) < len(columns) {
			rec = append(rec, "")
		}
		records = append(records, rec)
	}

	schema := Schema{Columns: columns, Kinds: make([]Kind, len(columns))}
	cells := make([]string, len(records))
	for i := range columns {
		for j, rec := range records {
			cells[j] = rec[i]
		}
		schema.Kinds[i] = inferKind(cells)
	}

	if err := bindFilterColumns(&schema); err != nil {
		return nil, err
	}

	table := &Table{Schema: schema, Rows: make([]Row, 0, len(records))}
	armIdx := schema.Index(ColumnArm)
	doseIdx := schema.Index(ColumnDose)
	tumorIdx := schema.Index(ColumnTumorType)

	for _, rec := range records {
		row := Row{schema: &table.Schema, values: make([]interface{}, len(columns))}
		for i, cell := range rec {
			row.values[i] = convert(cell, schema.Kinds[i])
		}

		row.Dose, row.HasDose = wholeNumber(row.values[doseIdx])
		row.Arm, _ = row.values[armIdx].(string)
		row.TumorType, _ = row.values[tumorIdx].(string)

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// bindFilterColumns checks the filter columns exist. arm and tumor_type are
// categorical and always read as strings. dose keeps its inferred kind.
func bindFilterColumns(schema *Schema) error {
	for _, c := range []string{ColumnArm, ColumnDose, ColumnTumorType} {
		if schema.Index(c) < 0 {
			return fmt.Errorf("%w: missing column %q", ErrUnavailable, c)
		}
	}

	schema.Kinds[schema.Index(ColumnArm)] = KindString
	schema.Kinds[schema.Index(ColumnTumorType)] = KindString
	return nil
}

// wholeNumber reports the integer value of a dose cell. Floats qualify only
// when they hold a whole number, so 1800.0 compares equal to 1800.
func wholeNumber(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt64 && n < math.MaxInt64 {
			return int64(n), true
		}
	}
	return 0, false
}

// normalizeHeader strips a UTF-8 BOM and renames duplicate columns to
// name.1, name.2, ...
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	counts := make(map[string]int)
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		name := h
		for used[name] {
			counts[h]++
			name = h + "." + strconv.Itoa(counts[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}
