// Package predictor turns a booking record into a cancellation-risk verdict.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookingrisk/booking"
	"bookingrisk/logger"
	"bookingrisk/ml"
	"bookingrisk/monitoring"
)

// Risk is the machine-readable side of a verdict.
type Risk string

const (
	RiskLow  Risk = "low"
	RiskHigh Risk = "high"
)

const (
	VerdictHigh = "High Risk of Cancellation"
	VerdictLow  = "Low Risk of Cancellation"
)

// Verdict is the outcome of one prediction.
type Verdict struct {
	Label   int    `json:"label"`
	Verdict string `json:"verdict"`
	Risk    Risk   `json:"risk"`
}

func (v Verdict) High() bool { return v.Risk == RiskHigh }

// VerdictFor maps a classifier label onto a verdict. Only 0 and 1 are valid.
func VerdictFor(label int) (Verdict, error) {
	switch label {
	case 1:
		return Verdict{Label: 1, Verdict: VerdictHigh, Risk: RiskHigh}, nil
	case 0:
		return Verdict{Label: 0, Verdict: VerdictLow, Risk: RiskLow}, nil
	}
	return Verdict{}, fmt.Errorf("classifier returned label %d, want 0 or 1", label)
}

// Event describes one served prediction.
type Event struct {
	Record  booking.Record `json:"record"`
	Verdict Verdict        `json:"verdict"`
	Model   ml.ModelInfo   `json:"model"`
	At      time.Time      `json:"at"`
}

// Recorder is told about every served prediction. A failing recorder is
// logged and never fails the prediction itself.
type Recorder interface {
	RecordPrediction(ctx context.Context, ev Event) error
}

type RecorderFunc func(ctx context.Context, ev Event) error

func (f RecorderFunc) RecordPrediction(ctx context.Context, ev Event) error { return f(ctx, ev) }

type Option func(*Adapter)

func WithMetrics(m *monitoring.Metrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

func WithLogger(l logger.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// WithRecorder adds r to the recorders notified after each prediction.
func WithRecorder(r Recorder) Option {
	return func(a *Adapter) { a.recorders = append(a.recorders, r) }
}

// Adapter runs a record through the classifier handed out by its source.
// It holds no per-call state and is safe for concurrent use.
type Adapter struct {
	source    ml.ModelProvider
	metrics   *monitoring.Metrics
	log       logger.Logger
	recorders []Recorder
}

func New(source ml.ModelProvider, opts ...Option) *Adapter {
	a := &Adapter{source: source, log: logger.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Predict validates rec, builds its frame and asks the classifier for a label.
// Input errors come back as *booking.ValidationError; everything else as *Error.
func (a *Adapter) Predict(ctx context.Context, rec booking.Record) (Verdict, error) {
	start := time.Now()
	if err := rec.Validate(); err != nil {
		return Verdict{}, err
	}

	model, err := a.source.Model(ctx)
	if err != nil {
		return Verdict{}, a.fail(ModelUnavailable, err, start)
	}

	label, err := model.Predict(rec.Frame())
	if err != nil {
		return Verdict{}, a.fail(PredictionFailed, err, start)
	}
	verdict, err := VerdictFor(label)
	if err != nil {
		return Verdict{}, a.fail(PredictionFailed, err, start)
	}

	info := model.Info()
	a.metrics.ObservePrediction(string(verdict.Risk), time.Since(start))
	a.log.Debug("prediction served",
		"risk", verdict.Risk,
		"model_version", info.Version,
		"took", time.Since(start))

	ev := Event{Record: rec, Verdict: verdict, Model: info, At: time.Now()}
	for _, r := range a.recorders {
		if err := r.RecordPrediction(ctx, ev); err != nil {
			a.log.Warn("failed to record prediction", "error", err)
		}
	}
	return verdict, nil
}

// Ready reports whether the classifier can currently be obtained.
func (a *Adapter) Ready(ctx context.Context) (ml.ModelInfo, error) {
	model, err := a.source.Model(ctx)
	if err != nil {
		return ml.ModelInfo{}, &Error{Kind: ModelUnavailable, Err: err}
	}
	return model.Info(), nil
}

func (a *Adapter) fail(kind Kind, err error, start time.Time) error {
	a.metrics.ObserveError(string(kind), time.Since(start))
	a.log.Warn("prediction failed", "kind", kind, "error", err)
	return &Error{Kind: kind, Err: err}
}

// Kind classifies prediction failures.
type Kind string

const (
	ModelUnavailable Kind = "model_unavailable"
	PredictionFailed Kind = "prediction_failed"
)

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("predictor: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so errors.Is(err, &Error{Kind: ModelUnavailable})
// works without caring about the cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Err == nil
}

// KindOf returns the kind of a prediction error, or "" if err is not one.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}
