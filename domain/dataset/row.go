package dataset

import (
	"fmt"
	"strconv"
)

// ValueKind discriminates the closed set of scalar types a row cell can hold.
type ValueKind int

// ValueKind values.
const (
	ValueNull ValueKind = iota
	ValueString
	ValueNumber
	ValueBool
)

// Value is one scalar cell of a row: string, number, bool, or null.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
}

// NullValue returns the null Value.
func NullValue() Value { return Value{kind: ValueNull} }

// StringValue wraps a string cell.
func StringValue(s string) Value { return Value{kind: ValueString, str: s} }

// NumberValue wraps a numeric cell.
func NumberValue(n float64) Value { return Value{kind: ValueNumber, num: n} }

// BoolValue wraps a boolean cell.
func BoolValue(b bool) Value { return Value{kind: ValueBool, b: b} }

// Kind returns the value's discriminator.
func (v Value) Kind() ValueKind { return v.kind }

// String returns the string payload (only meaningful for ValueString).
func (v Value) String() string { return v.str }

// Number returns the numeric payload (only meaningful for ValueNumber).
func (v Value) Number() float64 { return v.num }

// Bool returns the boolean payload (only meaningful for ValueBool).
func (v Value) Bool() bool { return v.b }

// Text renders the value as embeddable text. Null renders as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Interface returns the value as a plain Go value for JSON encoding.
func (v Value) Interface() any {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueNumber:
		return v.num
	case ValueBool:
		return v.b
	default:
		return nil
	}
}

// ValueFromInterface converts a decoded JSON scalar into a Value.
func ValueFromInterface(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return NullValue(), nil
	case string:
		return StringValue(t), nil
	case float64:
		return NumberValue(t), nil
	case int:
		return NumberValue(float64(t)), nil
	case int64:
		return NumberValue(float64(t)), nil
	case bool:
		return BoolValue(t), nil
	default:
		return Value{}, fmt.Errorf("unsupported row value type %T", raw)
	}
}

// Row is one row of a File, decomposed for row-addressable embedding.
// RowIndex is unique per file and defines the canonical ordering used to
// align embeddings, clusters, and coordinates positionally.
type Row struct {
	id       int64
	fileID   int64
	rowIndex int
	columns  []string
	values   map[string]Value
}

// NewRow creates a Row pending persistence. The columns slice fixes the
// cell ordering of the payload.
func NewRow(fileID int64, rowIndex int, columns []string, values map[string]Value) Row {
	return Row{
		fileID:   fileID,
		rowIndex: rowIndex,
		columns:  append([]string(nil), columns...),
		values:   copyValues(values),
	}
}

// ReconstructRow creates a Row with all fields (used by the store layer).
func ReconstructRow(id, fileID int64, rowIndex int, columns []string, values map[string]Value) Row {
	r := NewRow(fileID, rowIndex, columns, values)
	r.id = id
	return r
}

// ID returns the row id.
func (r Row) ID() int64 { return r.id }

// FileID returns the owning file id.
func (r Row) FileID() int64 { return r.fileID }

// RowIndex returns the original source position of this row.
func (r Row) RowIndex() int { return r.rowIndex }

// Columns returns the ordered column names of the payload.
func (r Row) Columns() []string { return append([]string(nil), r.columns...) }

// Value returns the cell for the named column and whether it exists.
func (r Row) Value(column string) (Value, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Values returns a copy of the payload map.
func (r Row) Values() map[string]Value { return copyValues(r.values) }

func copyValues(values map[string]Value) map[string]Value {
	out := make(map[string]Value, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
