package domain

import (
	"sort"
	"strings"
	"time"
)

type DateRange string

const (
	DateRangeUpcoming    DateRange = "upcoming"
	DateRangePast        DateRange = "past"
	DateRangeThisMonth   DateRange = "thisMonth"
	DateRangeLastMonth   DateRange = "lastMonth"
	DateRangeLast3Months DateRange = "last3Months"
)

type SortKey string

const (
	SortByDepartureDate SortKey = "departureDate"
	SortByBookingDate   SortKey = "bookingDate"
	SortByAmount        SortKey = "amount"
	SortByStatus        SortKey = "status"
)

// FilterCriteria is re-applied against the full booking set on every change;
// nothing is applied incrementally. Empty fields mean "no constraint".
type FilterCriteria struct {
	SearchTerm string
	Status     BookingStatus
	DateRange  DateRange
	SortBy     SortKey
}

// FilterBookings returns a new filtered and sorted slice. All predicates are
// combined with AND and the input slice is never mutated. The sort is stable:
// bookings with equal keys keep their relative order.
func FilterBookings(bookings []Booking, criteria FilterCriteria, now time.Time) []Booking {
	out := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if criteria.matches(&b, now) {
			out = append(out, b)
		}
	}
	sortBookings(out, criteria.SortBy)
	return out
}

func (c FilterCriteria) matches(b *Booking, now time.Time) bool {
	if c.SearchTerm != "" && !matchesSearch(b, c.SearchTerm) {
		return false
	}
	if c.Status != "" && b.Status != c.Status {
		return false
	}
	if c.DateRange != "" && !matchesDateRange(b.DepartureTime, c.DateRange, now) {
		return false
	}
	return true
}

func matchesSearch(b *Booking, term string) bool {
	term = strings.ToLower(term)
	for _, field := range []string{b.Reference, b.Origin, b.Destination, b.OperatorName} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func matchesDateRange(departure time.Time, dr DateRange, now time.Time) bool {
	switch dr {
	case DateRangeUpcoming:
		return departure.After(now)
	case DateRangePast:
		return departure.Before(now)
	case DateRangeThisMonth:
		return departure.Month() == now.Month() && departure.Year() == now.Year()
	case DateRangeLastMonth:
		lastMonth := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
		return departure.Month() == lastMonth.Month() && departure.Year() == lastMonth.Year()
	case DateRangeLast3Months:
		// Cutoff is the first day of the month three months back, not a
		// rolling 90-day window.
		cutoff := time.Date(now.Year(), now.Month()-3, 1, 0, 0, 0, 0, now.Location())
		return !departure.Before(cutoff)
	default:
		return true
	}
}

func sortBookings(bookings []Booking, key SortKey) {
	switch key {
	case SortByDepartureDate:
		sort.SliceStable(bookings, func(i, j int) bool {
			return bookings[i].DepartureTime.After(bookings[j].DepartureTime)
		})
	case SortByBookingDate:
		sort.SliceStable(bookings, func(i, j int) bool {
			return bookings[i].BookingDate.After(bookings[j].BookingDate)
		})
	case SortByAmount:
		sort.SliceStable(bookings, func(i, j int) bool {
			return bookings[i].TotalAmountCents > bookings[j].TotalAmountCents
		})
	case SortByStatus:
		sort.SliceStable(bookings, func(i, j int) bool {
			return bookings[i].Status < bookings[j].Status
		})
	}
}
