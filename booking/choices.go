package booking

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

type Country string

const (
	CountryPRT    Country = "PRT"
	CountryGBR    Country = "GBR"
	CountryFRA    Country = "FRA"
	CountryESP    Country = "ESP"
	CountryDEU    Country = "DEU"
	CountryITA    Country = "ITA"
	CountryIRL    Country = "IRL"
	CountryBEL    Country = "BEL"
	CountryBRA    Country = "BRA"
	CountryNLD    Country = "NLD"
	CountryUSA    Country = "USA"
	CountryCHE    Country = "CHE"
	CountryOthers Country = "Others"
)

type MarketSegment string

const (
	SegmentDirect        MarketSegment = "Direct"
	SegmentCorporate     MarketSegment = "Corporate"
	SegmentOnlineTA      MarketSegment = "Online TA"
	SegmentOfflineTATO   MarketSegment = "Offline TA/TO"
	SegmentGroups        MarketSegment = "Groups"
	SegmentComplementary MarketSegment = "Complementary"
	SegmentAviation      MarketSegment = "Aviation"
)

type DepositType string

const (
	DepositNone       DepositType = "No Deposit"
	DepositNonRefund  DepositType = "Non Refund"
	DepositRefundable DepositType = "Refundable"
)

type CustomerType string

const (
	CustomerTransient      CustomerType = "Transient"
	CustomerContract       CustomerType = "Contract"
	CustomerTransientParty CustomerType = "Transient-Party"
	CustomerGroup          CustomerType = "Group"
)

type RoomType string

const (
	RoomA RoomType = "A"
	RoomB RoomType = "B"
	RoomC RoomType = "C"
	RoomD RoomType = "D"
	RoomE RoomType = "E"
	RoomF RoomType = "F"
	RoomG RoomType = "G"
	RoomH RoomType = "H"
	RoomL RoomType = "L"
	RoomP RoomType = "P"
)

// WaitingList is the bucketed days_in_waiting_list value. The model was trained
// on the string buckets, not on the raw day count.
type WaitingList string

const (
	WaitingNone    WaitingList = "0"
	WaitingOnePlus WaitingList = "1 or more day(s)"
)

// Choice lists are ordered as shown in the form; the first entry is the default.
var (
	countries = []Country{
		CountryPRT, CountryGBR, CountryFRA, CountryESP, CountryDEU, CountryITA, CountryIRL,
		CountryBEL, CountryBRA, CountryNLD, CountryUSA, CountryCHE, CountryOthers,
	}
	marketSegments = []MarketSegment{
		SegmentDirect, SegmentCorporate, SegmentOnlineTA, SegmentOfflineTATO,
		SegmentGroups, SegmentComplementary, SegmentAviation,
	}
	depositTypes  = []DepositType{DepositNone, DepositNonRefund, DepositRefundable}
	customerTypes = []CustomerType{CustomerTransient, CustomerContract, CustomerTransientParty, CustomerGroup}
	roomTypes     = []RoomType{RoomA, RoomB, RoomC, RoomD, RoomE, RoomF, RoomG, RoomH, RoomL, RoomP}
	waitingLists  = []WaitingList{WaitingNone, WaitingOnePlus}
)

func Countries() []Country              { return slices.Clone(countries) }
func MarketSegments() []MarketSegment   { return slices.Clone(marketSegments) }
func DepositTypes() []DepositType       { return slices.Clone(depositTypes) }
func CustomerTypes() []CustomerType     { return slices.Clone(customerTypes) }
func RoomTypes() []RoomType             { return slices.Clone(roomTypes) }
func WaitingListOptions() []WaitingList { return slices.Clone(waitingLists) }

func ParseCountry(s string) (Country, error) {
	return parseChoice(ColCountry, s, countries)
}

func ParseMarketSegment(s string) (MarketSegment, error) {
	return parseChoice(ColMarketSegment, s, marketSegments)
}

func ParseDepositType(s string) (DepositType, error) {
	return parseChoice(ColDepositType, s, depositTypes)
}

func ParseCustomerType(s string) (CustomerType, error) {
	return parseChoice(ColCustomerType, s, customerTypes)
}

func ParseRoomType(s string) (RoomType, error) {
	return parseChoice(ColReservedRoomType, s, roomTypes)
}

func ParseWaitingList(s string) (WaitingList, error) {
	return parseChoice(ColDaysInWaitingList, s, waitingLists)
}

// parseChoice matches s against choices ignoring case and surrounding blanks and
// returns the canonical spelling, so "online ta" yields "Online TA".
func parseChoice[T ~string](field, s string, choices []T) (T, error) {
	// Casers keep state; one per call keeps this safe across handlers.
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(s))
	for _, c := range choices {
		if fold.String(string(c)) == want {
			return c, nil
		}
	}
	var zero T
	return zero, invalidChoice(field, s, choices)
}

func validChoice[T ~string](v T, choices []T) bool {
	return slices.Contains(choices, v)
}

func joinChoices[T ~string](choices []T) string {
	return strings.Join(choiceStrings(choices), ", ")
}

func choiceStrings[T ~string](choices []T) []string {
	out := make([]string, len(choices))
	for i, c := range choices {
		out[i] = string(c)
	}
	return out
}
