package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	ModelTypeDecisionTree     = "decision_tree"
	ModelTypeGradientBoosting = "gradient_boosting"
)

// artifact is the on-disk JSON form of a trained model.
type artifact struct {
	ModelType    string              `json:"model_type"`
	Version      string              `json:"version"`
	FeatureNames []string            `json:"feature_names"`
	FeatureTypes []FeatureType       `json:"feature_types"`
	Categories   map[string][]string `json:"categories"`
	BaseScore    float64             `json:"base_score"`
	Threshold    *float64            `json:"threshold"`
	Nodes        []TreeNode          `json:"nodes"`
	Trees        []struct {
		Nodes []TreeNode `json:"nodes"`
	} `json:"trees"`
}

// LoadModel reads and validates the artifact at path.
func LoadModel(path string) (Classifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, &ModelLoadError{Path: path, Err: err}
	}
	model, err := ParseModel(payload)
	if err != nil {
		var loadErr *ModelLoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = path
		}
		return nil, err
	}
	return model, nil
}

// ParseModel decodes an artifact from memory.
func ParseModel(payload []byte) (Classifier, error) {
	var a artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, &ModelLoadError{Err: err}
	}
	model, err := a.build()
	if err != nil {
		return nil, &ModelLoadError{Err: err}
	}
	return model, nil
}

func (a artifact) schema() (Schema, error) {
	if len(a.FeatureTypes) != len(a.FeatureNames) {
		return Schema{}, fmt.Errorf("%d feature names but %d feature types", len(a.FeatureNames), len(a.FeatureTypes))
	}
	schema := Schema{Features: make([]Feature, len(a.FeatureNames))}
	for i, name := range a.FeatureNames {
		schema.Features[i] = Feature{Name: name, Type: a.FeatureTypes[i], Categories: a.Categories[name]}
	}
	return schema, schema.validate()
}

func (a artifact) build() (Classifier, error) {
	schema, err := a.schema()
	if err != nil {
		return nil, err
	}
	info := ModelInfo{Type: a.ModelType, Version: a.Version}

	switch a.ModelType {
	case ModelTypeDecisionTree:
		if err := validateNodes(a.Nodes, len(schema.Features)); err != nil {
			return nil, err
		}
		return &DecisionTree{info: info, schema: schema, nodes: a.Nodes}, nil
	case ModelTypeGradientBoosting:
		if len(a.Trees) == 0 {
			return nil, errors.New("ensemble has no trees")
		}
		threshold := 0.5
		if a.Threshold != nil {
			threshold = *a.Threshold
		}
		if threshold <= 0 || threshold >= 1 {
			return nil, fmt.Errorf("threshold %v outside (0, 1)", threshold)
		}
		trees := make([][]TreeNode, len(a.Trees))
		for i, t := range a.Trees {
			if err := validateNodes(t.Nodes, len(schema.Features)); err != nil {
				return nil, fmt.Errorf("tree %d: %w", i, err)
			}
			trees[i] = t.Nodes
		}
		return &GradientBoosting{
			info:      info,
			schema:    schema,
			trees:     trees,
			baseScore: a.BaseScore,
			threshold: threshold,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", a.ModelType)
	}
}
