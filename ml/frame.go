package ml

import "strconv"

// Value is a single cell of a Frame: either a number or a categorical string.
type Value struct {
	Number float64
	Text   string
	IsText bool
}

func Number(v float64) Value { return Value{Number: v} }

func Int(v int) Value { return Value{Number: float64(v)} }

func Text(s string) Value { return Value{Text: s, IsText: true} }

func (v Value) String() string {
	if v.IsText {
		return v.Text
	}
	return strconv.FormatFloat(v.Number, 'f', -1, 64)
}

// Frame is a single-row table with named columns, the input every Classifier
// predicts on. Columns and Values are parallel.
type Frame struct {
	Columns []string
	Values  []Value
}

// Lookup returns the value stored under column name.
func (f Frame) Lookup(name string) (Value, bool) {
	for i, c := range f.Columns {
		if c == name && i < len(f.Values) {
			return f.Values[i], true
		}
	}
	return Value{}, false
}
