package ml

import "context"

// Classifier is a trained binary model. It is immutable once loaded.
type Classifier interface {
	Info() ModelInfo
	Schema() Schema
	Predict(frame Frame) (int, error)
}

type ModelInfo struct {
	Type    string `json:"type"`
	Version string `json:"version"`
}

// ModelProvider hands out the classifier to use for a request.
type ModelProvider interface {
	Model(ctx context.Context) (Classifier, error)
}
