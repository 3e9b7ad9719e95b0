package booking

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bookingrisk/ml"
)

// Column names of the trained model's input, in training order.
const (
	ColPreviousCancellations    = "previous_cancellations"
	ColCountry                  = "country"
	ColMarketSegment            = "market_segment"
	ColBookingChanges           = "booking_changes"
	ColRequiredCarParkingSpaces = "required_car_parking_spaces"
	ColTotalOfSpecialRequests   = "total_of_special_requests"
	ColDepositType              = "deposit_type"
	ColCustomerType             = "customer_type"
	ColReservedRoomType         = "reserved_room_type"
	ColDaysInWaitingList        = "days_in_waiting_list"
)

var columns = []string{
	ColPreviousCancellations,
	ColCountry,
	ColMarketSegment,
	ColBookingChanges,
	ColRequiredCarParkingSpaces,
	ColTotalOfSpecialRequests,
	ColDepositType,
	ColCustomerType,
	ColReservedRoomType,
	ColDaysInWaitingList,
}

// Columns returns the model input schema in order.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// Record is one booking as entered by a user. Field order follows Columns.
type Record struct {
	PreviousCancellations    int           `json:"previous_cancellations"`
	Country                  Country       `json:"country"`
	MarketSegment            MarketSegment `json:"market_segment"`
	BookingChanges           int           `json:"booking_changes"`
	RequiredCarParkingSpaces int           `json:"required_car_parking_spaces"`
	TotalOfSpecialRequests   int           `json:"total_of_special_requests"`
	DepositType              DepositType   `json:"deposit_type"`
	CustomerType             CustomerType  `json:"customer_type"`
	ReservedRoomType         RoomType      `json:"reserved_room_type"`
	DaysInWaitingList        WaitingList   `json:"days_in_waiting_list"`
}

// Default returns the record the form starts with: every counter at its
// default and every selector at its first choice.
func Default() Record {
	return Record{
		PreviousCancellations:    previousCancellations.Default,
		Country:                  countries[0],
		MarketSegment:            marketSegments[0],
		BookingChanges:           bookingChanges.Default,
		RequiredCarParkingSpaces: parkingSpaces.Default,
		TotalOfSpecialRequests:   specialRequests.Default,
		DepositType:              depositTypes[0],
		CustomerType:             customerTypes[0],
		ReservedRoomType:         roomTypes[0],
		DaysInWaitingList:        waitingLists[0],
	}
}

// Validate reports the first field that is outside its domain.
func (r Record) Validate() error {
	counters := []struct {
		name   string
		value  int
		bounds Bounds
	}{
		{ColPreviousCancellations, r.PreviousCancellations, previousCancellations},
		{ColBookingChanges, r.BookingChanges, bookingChanges},
		{ColRequiredCarParkingSpaces, r.RequiredCarParkingSpaces, parkingSpaces},
		{ColTotalOfSpecialRequests, r.TotalOfSpecialRequests, specialRequests},
	}
	for _, c := range counters {
		if err := c.bounds.check(c.name, c.value); err != nil {
			return err
		}
	}

	switch {
	case !validChoice(r.Country, countries):
		return invalidChoice(ColCountry, string(r.Country), countries)
	case !validChoice(r.MarketSegment, marketSegments):
		return invalidChoice(ColMarketSegment, string(r.MarketSegment), marketSegments)
	case !validChoice(r.DepositType, depositTypes):
		return invalidChoice(ColDepositType, string(r.DepositType), depositTypes)
	case !validChoice(r.CustomerType, customerTypes):
		return invalidChoice(ColCustomerType, string(r.CustomerType), customerTypes)
	case !validChoice(r.ReservedRoomType, roomTypes):
		return invalidChoice(ColReservedRoomType, string(r.ReservedRoomType), roomTypes)
	case !validChoice(r.DaysInWaitingList, waitingLists):
		return invalidChoice(ColDaysInWaitingList, string(r.DaysInWaitingList), waitingLists)
	}
	return nil
}

// Frame maps the record onto the model's named-column input. This is the only
// place that knows how record fields line up with model columns.
func (r Record) Frame() ml.Frame {
	return ml.Frame{
		Columns: Columns(),
		Values: []ml.Value{
			ml.Int(r.PreviousCancellations),
			ml.Text(string(r.Country)),
			ml.Text(string(r.MarketSegment)),
			ml.Int(r.BookingChanges),
			ml.Int(r.RequiredCarParkingSpaces),
			ml.Int(r.TotalOfSpecialRequests),
			ml.Text(string(r.DepositType)),
			ml.Text(string(r.CustomerType)),
			ml.Text(string(r.ReservedRoomType)),
			ml.Text(string(r.DaysInWaitingList)),
		},
	}
}

// SummaryRow is one line of the guest details table.
type SummaryRow struct {
	Field string `json:"field"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Summary restates the record with human-readable labels, in column order.
func (r Record) Summary() []SummaryRow {
	frame := r.Frame()
	rows := make([]SummaryRow, len(frame.Columns))
	for i, col := range frame.Columns {
		rows[i] = SummaryRow{Field: col, Label: Label(col), Value: frame.Values[i].String()}
	}
	return rows
}

// canonical rewrites the selector fields to their canonical spelling.
func (r *Record) canonical() error {
	var err error
	if r.Country, err = ParseCountry(string(r.Country)); err != nil {
		return err
	}
	if r.MarketSegment, err = ParseMarketSegment(string(r.MarketSegment)); err != nil {
		return err
	}
	if r.DepositType, err = ParseDepositType(string(r.DepositType)); err != nil {
		return err
	}
	if r.CustomerType, err = ParseCustomerType(string(r.CustomerType)); err != nil {
		return err
	}
	if r.ReservedRoomType, err = ParseRoomType(string(r.ReservedRoomType)); err != nil {
		return err
	}
	if r.DaysInWaitingList, err = ParseWaitingList(string(r.DaysInWaitingList)); err != nil {
		return err
	}
	return nil
}

// encoding/json reports DisallowUnknownFields violations as a plain error with
// this prefix.
const unknownFieldPrefix = "json: unknown field"

// DecodeJSON reads a record from a JSON object. Keys that are absent keep their
// default value; unknown keys are rejected so a misspelt column never slips
// through as a default.
func DecodeJSON(rd io.Reader) (Record, error) {
	rec := Default()
	dec := json.NewDecoder(rd)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		var (
			typeErr   *json.UnmarshalTypeError
			syntaxErr *json.SyntaxError
		)
		switch {
		case errors.As(err, &typeErr):
			return Record{}, &ValidationError{Field: typeErr.Field, Value: typeErr.Value, Reason: "expected " + typeErr.Type.String()}
		case errors.Is(err, io.EOF):
			return Record{}, &ValidationError{Reason: "empty body"}
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF),
			strings.HasPrefix(err.Error(), unknownFieldPrefix):
			return Record{}, &ValidationError{Reason: err.Error()}
		}
		return Record{}, fmt.Errorf("booking: read record: %w", err)
	}
	// exactly one object per body
	var syntaxErr *json.SyntaxError
	switch err := dec.Decode(&struct{}{}); {
	case errors.Is(err, io.EOF):
	case err == nil, errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return Record{}, &ValidationError{Reason: "unexpected data after the JSON object"}
	default:
		return Record{}, fmt.Errorf("booking: read record: %w", err)
	}
	if err := rec.canonical(); err != nil {
		return Record{}, err
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ValidationError is returned for input the form itself could never produce,
// such as a hand-crafted request with an out-of-range counter.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "booking: invalid input: " + e.Reason
	}
	return fmt.Sprintf("booking: invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func invalidChoice[T ~string](field, value string, choices []T) error {
	return &ValidationError{Field: field, Value: value, Reason: "not one of " + joinChoices(choices)}
}

// Bounds is the inclusive range of a counter field.
type Bounds struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Step    int `json:"step"`
	Default int `json:"default"`
}

func (b Bounds) check(field string, v int) error {
	if v < b.Min || v > b.Max {
		return &ValidationError{
			Field:  field,
			Value:  strconv.Itoa(v),
			Reason: fmt.Sprintf("must be between %d and %d", b.Min, b.Max),
		}
	}
	return nil
}

var (
	previousCancellations = Bounds{Min: 0, Max: 26, Step: 1, Default: 0}
	bookingChanges        = Bounds{Min: 0, Max: 21, Step: 1, Default: 0}
	parkingSpaces         = Bounds{Min: 0, Max: 2, Step: 1, Default: 0}
	specialRequests       = Bounds{Min: 0, Max: 5, Step: 1, Default: 0}
)
