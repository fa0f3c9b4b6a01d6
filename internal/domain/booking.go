package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
)

type Passenger struct {
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	Phone      string `json:"phone"`
	SeatNumber string `json:"seat_number"`
}

// Booking carries a snapshot of the trip it was made against, so listing and
// filtering never need a join and the record stays readable after the trip row
// changes.
type Booking struct {
	ID                 int64
	Reference          string
	UserID             int64
	TripID             int64
	Origin             string
	Destination        string
	DepartureTime      time.Time
	ArrivalTime        time.Time
	Duration           string
	OperatorName       string
	SeatNumbers        []string
	Passengers         []Passenger
	Status             BookingStatus
	TotalAmountCents   int64
	BaseFareCents      int64
	TaxesCents         int64
	DiscountCents      int64
	PaymentStatus      PaymentStatus
	PaymentMethod      string
	TransactionID      string
	BookingDate        time.Time
	LastModified       *time.Time
	CancellationDate   *time.Time
	CancellationReason string
	RefundAmountCents  *int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CanModify reports whether a modification request is allowed: only confirmed
// bookings with a future departure qualify. Eligibility lives here and nowhere
// else; the service rejects transitions that fail it and handlers expose it as
// a flag.
func (b *Booking) CanModify(now time.Time) bool {
	return b.Status == BookingStatusConfirmed && b.DepartureTime.After(now)
}

// CanCancel reports whether cancellation is allowed: confirmed or pending
// bookings with a future departure.
func (b *Booking) CanCancel(now time.Time) bool {
	if !b.DepartureTime.After(now) {
		return false
	}
	return b.Status == BookingStatusConfirmed || b.Status == BookingStatusPending
}

// Active reports whether the booking still occupies seats.
func (b *Booking) Active() bool {
	return b.Status == BookingStatusConfirmed || b.Status == BookingStatusPending
}
