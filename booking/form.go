package booking

import (
	"net/url"
	"strconv"
	"strings"
)

// FieldKind tells a form how to render a field.
type FieldKind string

const (
	KindNumber FieldKind = "number"
	KindChoice FieldKind = "choice"
)

// Form sections, in display order.
const (
	SectionHistory    = "Booking History"
	SectionFacilities = "Facilities"
	SectionDetails    = "Booking Details"
)

// FieldSpec describes one input of the booking form.
type FieldSpec struct {
	Name    string    `json:"name"`
	Label   string    `json:"label"`
	Help    string    `json:"help"`
	Section string    `json:"section"`
	Kind    FieldKind `json:"kind"`
	Bounds  *Bounds   `json:"bounds,omitempty"`
	Choices []string  `json:"choices,omitempty"`
	Default string    `json:"default"`
}

var summaryLabels = map[string]string{
	ColPreviousCancellations:    "Previous Cancellations",
	ColCountry:                  "Country of Origin",
	ColMarketSegment:            "Market Segment",
	ColBookingChanges:           "Booking Changes",
	ColRequiredCarParkingSpaces: "Required Parking Spaces",
	ColTotalOfSpecialRequests:   "Special Requests",
	ColDepositType:              "Deposit Type",
	ColCustomerType:             "Customer Type",
	ColReservedRoomType:         "Room Type",
	ColDaysInWaitingList:        "Days in Waiting List",
}

// Label returns the human-readable name of a column, or the column itself.
func Label(column string) string {
	if l, ok := summaryLabels[column]; ok {
		return l
	}
	return column
}

// Fields returns the form inputs in display order. Input labels differ from
// summary labels in a few places ("Parking Spaces", "Waiting List Duration").
func Fields() []FieldSpec {
	return []FieldSpec{
		numberField(ColPreviousCancellations, "Previous Cancellations", "Number of previous booking cancellations", SectionHistory, previousCancellations),
		numberField(ColBookingChanges, "Booking Changes", "Number of changes made to the booking", SectionHistory, bookingChanges),
		numberField(ColRequiredCarParkingSpaces, "Required Parking Spaces", "Number of car parking spaces required", SectionFacilities, parkingSpaces),
		numberField(ColTotalOfSpecialRequests, "Special Requests", "Total number of special requests made by the guest", SectionFacilities, specialRequests),
		choiceField(ColCountry, "Country of Origin", "Guest's country of origin", choiceStrings(countries)),
		choiceField(ColMarketSegment, "Market Segment", "Booking market segment", choiceStrings(marketSegments)),
		choiceField(ColDepositType, "Deposit Type", "Type of deposit made for the booking", choiceStrings(depositTypes)),
		choiceField(ColCustomerType, "Customer Type", "Type of customer", choiceStrings(customerTypes)),
		choiceField(ColReservedRoomType, "Room Type", "Type of room reserved", choiceStrings(roomTypes)),
		choiceField(ColDaysInWaitingList, "Waiting List Duration", "Days the booking was in the waiting list", choiceStrings(waitingLists)),
	}
}

func numberField(name, label, help, section string, b Bounds) FieldSpec {
	bounds := b
	return FieldSpec{
		Name:    name,
		Label:   label,
		Help:    help,
		Section: section,
		Kind:    KindNumber,
		Bounds:  &bounds,
		Default: strconv.Itoa(b.Default),
	}
}

func choiceField(name, label, help string, choices []string) FieldSpec {
	return FieldSpec{
		Name:    name,
		Label:   label,
		Help:    help,
		Section: SectionDetails,
		Kind:    KindChoice,
		Choices: choices,
		Default: choices[0],
	}
}

// FromValues collects a record from submitted form values. Missing or blank
// inputs take their default, so an empty query yields Default().
func FromValues(values url.Values) (Record, error) {
	rec := Default()

	counters := []struct {
		name string
		dst  *int
	}{
		{ColPreviousCancellations, &rec.PreviousCancellations},
		{ColBookingChanges, &rec.BookingChanges},
		{ColRequiredCarParkingSpaces, &rec.RequiredCarParkingSpaces},
		{ColTotalOfSpecialRequests, &rec.TotalOfSpecialRequests},
	}
	for _, c := range counters {
		raw := strings.TrimSpace(values.Get(c.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Record{}, &ValidationError{Field: c.name, Value: raw, Reason: "not a whole number"}
		}
		*c.dst = n
	}

	var err error
	if v := values.Get(ColCountry); v != "" {
		if rec.Country, err = ParseCountry(v); err != nil {
			return Record{}, err
		}
	}
	if v := values.Get(ColMarketSegment); v != "" {
		if rec.MarketSegment, err = ParseMarketSegment(v); err != nil {
			return Record{}, err
		}
	}
	if v := values.Get(ColDepositType); v != "" {
		if rec.DepositType, err = ParseDepositType(v); err != nil {
			return Record{}, err
		}
	}
	if v := values.Get(ColCustomerType); v != "" {
		if rec.CustomerType, err = ParseCustomerType(v); err != nil {
			return Record{}, err
		}
	}
	if v := values.Get(ColReservedRoomType); v != "" {
		if rec.ReservedRoomType, err = ParseRoomType(v); err != nil {
			return Record{}, err
		}
	}
	if v := values.Get(ColDaysInWaitingList); v != "" {
		if rec.DaysInWaitingList, err = ParseWaitingList(v); err != nil {
			return Record{}, err
		}
	}

	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}
