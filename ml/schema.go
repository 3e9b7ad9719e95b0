package ml

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

type FeatureType string

const (
	FeatureInt         FeatureType = "int"
	FeatureFloat       FeatureType = "float"
	FeatureCategorical FeatureType = "categorical"
)

// Feature is one input column of a trained model. Categorical values are
// encoded as their index in Categories.
type Feature struct {
	Name       string      `json:"name"`
	Type       FeatureType `json:"type"`
	Categories []string    `json:"categories,omitempty"`
}

// Schema is the ordered list of columns a model expects.
type Schema struct {
	Features []Feature `json:"features"`
}

func (s Schema) Names() []string {
	names := make([]string, len(s.Features))
	for i, f := range s.Features {
		names[i] = f.Name
	}
	return names
}

// Check verifies that names matches the schema exactly, in order.
func (s Schema) Check(names []string) error {
	for i, f := range s.Features {
		if i >= len(names) {
			return mismatch(f.Name, "missing column")
		}
		if got := names[i]; got != f.Name {
			if slices.Contains(names, f.Name) {
				return mismatch(f.Name, "expected at position %d, found %q there", i, got)
			}
			return mismatch(f.Name, "missing column, found %q at position %d", got, i)
		}
	}
	if len(names) > len(s.Features) {
		return mismatch(names[len(s.Features)], "unexpected column")
	}
	return nil
}

// Encode validates frame against the schema and returns the numeric feature
// vector the trees are evaluated on.
func (s Schema) Encode(frame Frame) ([]float64, error) {
	if len(frame.Values) != len(frame.Columns) {
		return nil, mismatch("", "row has %d values for %d columns", len(frame.Values), len(frame.Columns))
	}
	if err := s.Check(frame.Columns); err != nil {
		return nil, err
	}

	vector := make([]float64, len(s.Features))
	for i, f := range s.Features {
		v := frame.Values[i]
		switch f.Type {
		case FeatureCategorical:
			if !v.IsText {
				return nil, mismatch(f.Name, "expected categorical value, got number %s", v)
			}
			code := slices.Index(f.Categories, v.Text)
			if code < 0 {
				return nil, mismatch(f.Name, "unknown category %q", v.Text)
			}
			vector[i] = float64(code)
		case FeatureInt:
			if v.IsText {
				return nil, mismatch(f.Name, "expected integer, got %q", v.Text)
			}
			if v.Number != math.Trunc(v.Number) {
				return nil, mismatch(f.Name, "expected integer, got %s", v)
			}
			vector[i] = v.Number
		default:
			if v.IsText {
				return nil, mismatch(f.Name, "expected number, got %q", v.Text)
			}
			vector[i] = v.Number
		}
	}
	return vector, nil
}

func (s Schema) validate() error {
	if len(s.Features) == 0 {
		return errors.New("schema has no features")
	}
	seen := make(map[string]bool, len(s.Features))
	for _, f := range s.Features {
		if f.Name == "" {
			return errors.New("feature with empty name")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate feature %q", f.Name)
		}
		seen[f.Name] = true
		switch f.Type {
		case FeatureInt, FeatureFloat:
		case FeatureCategorical:
			if len(f.Categories) == 0 {
				return fmt.Errorf("categorical feature %q has no categories", f.Name)
			}
		default:
			return fmt.Errorf("feature %q has unsupported type %q", f.Name, f.Type)
		}
	}
	return nil
}
