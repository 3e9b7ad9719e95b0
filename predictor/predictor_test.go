package predictor

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingrisk/booking"
	"bookingrisk/ml"
	"bookingrisk/monitoring"
)

const shippedModel = "../models/hotel_booking_prediction_model.json"

func newAdapter(t *testing.T, path string, opts ...Option) *Adapter {
	t.Helper()
	store, err := ml.NewStore(2)
	require.NoError(t, err)
	return New(store.Source(path), opts...)
}

// stubClassifier returns a fixed label regardless of input.
type stubClassifier struct {
	label int
}

func (s stubClassifier) Info() ml.ModelInfo { return ml.ModelInfo{Type: "stub", Version: "test"} }
func (s stubClassifier) Schema() ml.Schema  { return ml.Schema{} }
func (s stubClassifier) Predict(ml.Frame) (int, error) {
	return s.label, nil
}

type stubSource struct {
	model ml.Classifier
	err   error
}

func (s stubSource) Model(context.Context) (ml.Classifier, error) { return s.model, s.err }

func TestPredictScenarios(t *testing.T) {
	adapter := newAdapter(t, shippedModel)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*booking.Record)
		want   Risk
	}{
		{"default booking", func(*booking.Record) {}, RiskLow},
		{"non refundable deposit", func(r *booking.Record) { r.DepositType = booking.DepositNonRefund }, RiskHigh},
		{"serial canceller", func(r *booking.Record) { r.PreviousCancellations = 26 }, RiskHigh},
		{"needs parking", func(r *booking.Record) { r.RequiredCarParkingSpaces = 2 }, RiskLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := booking.Default()
			tc.mutate(&rec)
			verdict, err := adapter.Predict(ctx, rec)
			require.NoError(t, err)
			assert.Equal(t, tc.want, verdict.Risk)
		})
	}
}

func TestEveryBoundaryIsAccepted(t *testing.T) {
	adapter := newAdapter(t, shippedModel)
	ctx := context.Background()

	for _, f := range booking.Fields() {
		if f.Kind != booking.KindNumber {
			continue
		}
		for _, n := range []int{f.Bounds.Min, f.Bounds.Max} {
			rec := booking.Default()
			switch f.Name {
			case booking.ColPreviousCancellations:
				rec.PreviousCancellations = n
			case booking.ColBookingChanges:
				rec.BookingChanges = n
			case booking.ColRequiredCarParkingSpaces:
				rec.RequiredCarParkingSpaces = n
			case booking.ColTotalOfSpecialRequests:
				rec.TotalOfSpecialRequests = n
			}
			verdict, err := adapter.Predict(ctx, rec)
			require.NoError(t, err, "%s=%d", f.Name, n)
			assert.Contains(t, []string{VerdictHigh, VerdictLow}, verdict.Verdict)
		}
	}
}

func TestEveryChoiceIsAccepted(t *testing.T) {
	adapter := newAdapter(t, shippedModel)
	ctx := context.Background()

	check := func(name string, mutate func(*booking.Record)) {
		t.Helper()
		rec := booking.Default()
		mutate(&rec)
		verdict, err := adapter.Predict(ctx, rec)
		require.NoError(t, err, name)
		assert.Contains(t, []string{VerdictHigh, VerdictLow}, verdict.Verdict, name)
	}
	for _, c := range booking.Countries() {
		check(string(c), func(r *booking.Record) { r.Country = c })
	}
	for _, s := range booking.MarketSegments() {
		check(string(s), func(r *booking.Record) { r.MarketSegment = s })
	}
	for _, d := range booking.DepositTypes() {
		check(string(d), func(r *booking.Record) { r.DepositType = d })
	}
	for _, c := range booking.CustomerTypes() {
		check(string(c), func(r *booking.Record) { r.CustomerType = c })
	}
	for _, rt := range booking.RoomTypes() {
		check(string(rt), func(r *booking.Record) { r.ReservedRoomType = rt })
	}
	for _, w := range booking.WaitingListOptions() {
		check(string(w), func(r *booking.Record) { r.DaysInWaitingList = w })
	}
}

// numericCorners returns every min/max combination of the four counters.
func numericCorners() []booking.Record {
	corners := []booking.Record{booking.Default()}
	for _, f := range booking.Fields() {
		if f.Kind != booking.KindNumber {
			continue
		}
		var next []booking.Record
		for _, rec := range corners {
			for _, n := range []int{f.Bounds.Min, f.Bounds.Max} {
				r := rec
				switch f.Name {
				case booking.ColPreviousCancellations:
					r.PreviousCancellations = n
				case booking.ColBookingChanges:
					r.BookingChanges = n
				case booking.ColRequiredCarParkingSpaces:
					r.RequiredCarParkingSpaces = n
				case booking.ColTotalOfSpecialRequests:
					r.TotalOfSpecialRequests = n
				}
				next = append(next, r)
			}
		}
		corners = next
	}
	return corners
}

func TestEveryCombinationYieldsHighOrLow(t *testing.T) {
	if testing.Short() {
		t.Skip("full enum grid")
	}
	adapter := newAdapter(t, shippedModel)
	ctx := context.Background()

	corners := numericCorners()
	require.Len(t, corners, 16)

	served := 0
	for _, base := range corners {
		rec := base
		for _, rec.Country = range booking.Countries() {
			for _, rec.MarketSegment = range booking.MarketSegments() {
				for _, rec.DepositType = range booking.DepositTypes() {
					for _, rec.CustomerType = range booking.CustomerTypes() {
						for _, rec.ReservedRoomType = range booking.RoomTypes() {
							for _, rec.DaysInWaitingList = range booking.WaitingListOptions() {
								verdict, err := adapter.Predict(ctx, rec)
								if err != nil {
									t.Fatalf("%+v: %v", rec, err)
								}
								if verdict.Verdict != VerdictHigh && verdict.Verdict != VerdictLow {
									t.Fatalf("%+v: unexpected verdict %q", rec, verdict.Verdict)
								}
								served++
							}
						}
					}
				}
			}
		}
	}
	assert.Equal(t, 16*13*7*3*4*10*2, served)
}

func TestPredictIsDeterministic(t *testing.T) {
	adapter := newAdapter(t, shippedModel)
	rec := booking.Default()
	rec.BookingChanges = 4
	rec.MarketSegment = booking.SegmentOnlineTA

	first, err := adapter.Predict(context.Background(), rec)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := adapter.Predict(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMissingArtifact(t *testing.T) {
	adapter := newAdapter(t, "testdata/does_not_exist.json")

	_, err := adapter.Predict(context.Background(), booking.Default())
	require.Error(t, err)
	assert.Equal(t, ModelUnavailable, KindOf(err))
	assert.True(t, errors.Is(err, &Error{Kind: ModelUnavailable}))
	assert.False(t, errors.Is(err, &Error{Kind: PredictionFailed}))

	var loadErr *ml.ModelLoadError
	assert.ErrorAs(t, err, &loadErr)

	_, err = adapter.Ready(context.Background())
	assert.Equal(t, ModelUnavailable, KindOf(err))
}

func TestReorderedArtifactIsSchemaMismatch(t *testing.T) {
	adapter := newAdapter(t, "../ml/testdata/booking_reordered.json")

	_, err := adapter.Predict(context.Background(), booking.Default())
	assert.Equal(t, PredictionFailed, KindOf(err))
	var mismatch *ml.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.NotEmpty(t, mismatch.Column)
}

func TestUnexpectedLabel(t *testing.T) {
	adapter := New(stubSource{model: stubClassifier{label: 2}})
	_, err := adapter.Predict(context.Background(), booking.Default())
	assert.Equal(t, PredictionFailed, KindOf(err))
}

func TestInvalidRecordNeverReachesModel(t *testing.T) {
	adapter := New(stubSource{err: errors.New("should not be asked")})
	rec := booking.Default()
	rec.TotalOfSpecialRequests = 9

	_, err := adapter.Predict(context.Background(), rec)
	var verr *booking.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, Kind(""), KindOf(err))
}

func TestMetricsAreRecorded(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry(), "test")
	adapter := New(stubSource{model: stubClassifier{label: 1}}, WithMetrics(metrics))

	verdict, err := adapter.Predict(context.Background(), booking.Default())
	require.NoError(t, err)
	assert.True(t, verdict.High())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("high")))

	broken := New(stubSource{err: errors.New("gone")}, WithMetrics(metrics))
	_, err = broken.Predict(context.Background(), booking.Default())
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PredictionErrors.WithLabelValues("model_unavailable")))
}

func TestVerdictFor(t *testing.T) {
	high, err := VerdictFor(1)
	require.NoError(t, err)
	assert.Equal(t, Verdict{Label: 1, Verdict: "High Risk of Cancellation", Risk: RiskHigh}, high)

	low, err := VerdictFor(0)
	require.NoError(t, err)
	assert.Equal(t, "Low Risk of Cancellation", low.Verdict)
	assert.False(t, low.High())

	_, err = VerdictFor(-1)
	assert.Error(t, err)
}

func TestRecordersSeeServedPredictions(t *testing.T) {
	var events []Event
	record := RecorderFunc(func(_ context.Context, ev Event) error {
		events = append(events, ev)
		return nil
	})
	failing := RecorderFunc(func(context.Context, Event) error { return errors.New("disk full") })

	adapter := New(stubSource{model: stubClassifier{label: 1}}, WithRecorder(failing), WithRecorder(record))
	rec := booking.Default()
	rec.Country = booking.CountryFRA

	verdict, err := adapter.Predict(context.Background(), rec)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, verdict, events[0].Verdict)
	assert.Equal(t, booking.CountryFRA, events[0].Record.Country)
	assert.Equal(t, "stub", events[0].Model.Type)
	assert.False(t, events[0].At.IsZero())

	_, err = New(stubSource{err: errors.New("gone")}, WithRecorder(record)).Predict(context.Background(), rec)
	require.Error(t, err)
	assert.Len(t, events, 1)
}
