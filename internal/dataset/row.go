package dataset

import (
	"bytes"
	"encoding/json"
)

// Row is one record of the dataset. The three filter columns are typed
// fields; every other column is carried through unchanged and emitted in
// header order when the row is encoded. HasDose is false when the dose cell
// is missing or not a whole number; such rows never match a dose filter.
type Row struct {
	Arm       string
	Dose      int64
	HasDose   bool
	TumorType string

	schema *Schema
	values []interface{}
}

// Field returns the native value of any column, including the typed ones.
// A missing cell yields (nil, true); an unknown column yields (nil, false).
func (r Row) Field(name string) (interface{}, bool) {
	if r.schema == nil {
		return nil, false
	}
	i := r.schema.Index(name)
	if i < 0 {
		return nil, false
	}
	return r.values[i], true
}

// Fields returns the passthrough columns keyed by column name.
func (r Row) Fields() map[string]interface{} {
	out := make(map[string]interface{})
	if r.schema == nil {
		return out
	}
	for i, c := range r.schema.Columns {
		switch c {
		case ColumnArm, ColumnDose, ColumnTumorType:
			continue
		}
		out[c] = r.values[i]
	}
	return out
}

// MarshalJSON encodes the row as an object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	if r.schema == nil {
		var dose interface{}
		if r.HasDose {
			dose = r.Dose
		}
		return json.Marshal(map[string]interface{}{
			ColumnArm:       r.Arm,
			ColumnDose:      dose,
			ColumnTumorType: r.TumorType,
		})
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.schema.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
