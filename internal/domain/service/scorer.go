package service

import (
	"context"
	"fmt"
)

// FeatureVector is one feature row in a fixed column order.
type FeatureVector struct {
	Columns []string
	Values  []float64
}

// Get returns the value of a named column.
func (v FeatureVector) Get(name string) (float64, bool) {
	for i, c := range v.Columns {
		if c == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Map returns the vector keyed by column name.
func (v FeatureVector) Map() map[string]float64 {
	m := make(map[string]float64, len(v.Columns))
	for i, c := range v.Columns {
		m[c] = v.Values[i]
	}
	return m
}

// Scorer turns a feature vector into class probabilities [p_down, p_up].
type Scorer interface {
	PredictProba(ctx context.Context, x FeatureVector) ([2]float64, error)
	FeatureNames() []string
	Name() string
}

// MissingFeatureError is returned when a scorer needs a column the vector does not carry.
type MissingFeatureError struct {
	Feature string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing feature %q", e.Feature)
}
