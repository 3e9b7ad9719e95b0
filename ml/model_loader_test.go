package ml

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadModelGradientBoosting(t *testing.T) {
	model, err := LoadModel("testdata/booking_gbt.json")
	require.NoError(t, err)
	assert.Equal(t, ModelTypeGradientBoosting, model.Info().Type)
	assert.Len(t, model.Schema().Features, 10)

	tests := []struct {
		name  string
		frame Frame
		want  int
	}{
		// -0.6 + 0.4 + 0.0
		{"default booking", bookingFrame(0, "No Deposit", 0), 0},
		// 2.5 + 0.4 + 0.0
		{"non refundable deposit", bookingFrame(0, "Non Refund", 0), 1},
		// 1.2 + 0.4 + 0.0
		{"many previous cancellations", bookingFrame(26, "No Deposit", 0), 1},
		// -0.6 - 3.0 + 0.0
		{"needs parking", bookingFrame(0, "No Deposit", 2), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, err := model.Predict(tt.frame)
			require.NoError(t, err)
			assert.Equal(t, tt.want, label)
		})
	}
}

func TestLoadModelMissingFile(t *testing.T) {
	_, err := LoadModel("testdata/does_not_exist.json")
	require.Error(t, err)

	var loadErr *ModelLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "testdata/does_not_exist.json", loadErr.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadModelCorrupt(t *testing.T) {
	_, err := LoadModel("testdata/corrupt.json")
	var loadErr *ModelLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "testdata/corrupt.json", loadErr.Path)
}

func TestParseModelRejectsInvalidArtifacts(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"unknown type", `{"model_type":"svm","feature_names":["a"],"feature_types":["int"],"nodes":[{"is_leaf":true}]}`},
		{"no features", `{"model_type":"decision_tree","nodes":[{"is_leaf":true}]}`},
		{"types length", `{"model_type":"decision_tree","feature_names":["a","b"],"feature_types":["int"],"nodes":[{"is_leaf":true}]}`},
		{"categorical without categories", `{"model_type":"decision_tree","feature_names":["a"],"feature_types":["categorical"],"nodes":[{"is_leaf":true}]}`},
		{"duplicate feature", `{"model_type":"decision_tree","feature_names":["a","a"],"feature_types":["int","int"],"nodes":[{"is_leaf":true}]}`},
		{"empty ensemble", `{"model_type":"gradient_boosting","feature_names":["a"],"feature_types":["int"]}`},
		{"bad threshold", `{"model_type":"gradient_boosting","feature_names":["a"],"feature_types":["int"],"threshold":1.5,"trees":[{"nodes":[{"is_leaf":true}]}]}`},
		{"feature out of range", `{"model_type":"decision_tree","feature_names":["a"],"feature_types":["int"],"nodes":[{"feature_idx":3,"left_child":1,"right_child":2},{"is_leaf":true},{"is_leaf":true}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseModel([]byte(tt.payload))
			var loadErr *ModelLoadError
			require.ErrorAs(t, err, &loadErr)
		})
	}
}
