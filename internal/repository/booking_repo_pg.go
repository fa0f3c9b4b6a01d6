package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vkirilenko/busbooker/internal/domain"
)

var (
	ErrNotFound = errors.New("booking not found")
	ErrNoSeats  = errors.New("not enough available seats")
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	MarkPending(ctx context.Context, reference string, modifiedAt time.Time) (*domain.Booking, error)
	MarkCancelled(ctx context.Context, reference, reason string, refundCents int64, cancelledAt time.Time) (*domain.Booking, error)
	CompleteDeparted(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
	CreateSupportRequest(ctx context.Context, req *domain.SupportRequest) error
}

const bookingColumns = `id, reference, user_id, trip_id, origin, destination, departure_time, arrival_time,
	duration, operator_name, seat_numbers, passengers, status, total_amount_cents, base_fare_cents,
	taxes_cents, discount_cents, payment_status, payment_method, transaction_id, booking_date,
	last_modified, cancellation_date, coalesce(cancellation_reason, ''), refund_amount_cents, created_at, updated_at`

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

// Create inserts the booking and takes its seats from the trip in one
// transaction, so two concurrent bookings cannot both get the last seat.
func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	seats := len(booking.SeatNumbers)
	var available int
	err = tx.QueryRow(ctx, `UPDATE trips SET available_seats = available_seats - $2, updated_at = now()
		WHERE id = $1 AND available_seats >= $2 RETURNING available_seats`, booking.TripID, seats).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNoSeats
	}
	if err != nil {
		return err
	}

	passengers, err := json.Marshal(booking.Passengers)
	if err != nil {
		return fmt.Errorf("encode passengers: %w", err)
	}

	if err := tx.QueryRow(ctx, `INSERT INTO bookings (reference, user_id, trip_id, origin, destination,
		departure_time, arrival_time, duration, operator_name, seat_numbers, passengers, status,
		total_amount_cents, base_fare_cents, taxes_cents, discount_cents, payment_status, payment_method,
		transaction_id, booking_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, created_at, updated_at`,
		booking.Reference, booking.UserID, booking.TripID, booking.Origin, booking.Destination,
		booking.DepartureTime, booking.ArrivalTime, booking.Duration, booking.OperatorName,
		booking.SeatNumbers, passengers, booking.Status, booking.TotalAmountCents, booking.BaseFareCents,
		booking.TaxesCents, booking.DiscountCents, booking.PaymentStatus, booking.PaymentMethod,
		booking.TransactionID, booking.BookingDate).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference=$1`, reference)
	return scanBooking(row)
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY booking_date DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *PGBookingRepository) MarkPending(ctx context.Context, reference string, modifiedAt time.Time) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, last_modified=$2, updated_at=now()
		WHERE reference=$3 RETURNING `+bookingColumns,
		domain.BookingStatusPending, modifiedAt, reference)
	return scanBooking(row)
}

func (r *PGBookingRepository) MarkCancelled(ctx context.Context, reference, reason string, refundCents int64, cancelledAt time.Time) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, cancellation_date=$2, cancellation_reason=$3,
		refund_amount_cents=$4, updated_at=now() WHERE reference=$5 RETURNING `+bookingColumns,
		domain.BookingStatusCancelled, cancelledAt, reason, refundCents, reference)
	return scanBooking(row)
}

func (r *PGBookingRepository) CompleteDeparted(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE status = ANY($2) AND departure_time <= $3 RETURNING `+bookingColumns,
		domain.BookingStatusCompleted,
		[]string{string(domain.BookingStatusConfirmed), string(domain.BookingStatusPending)},
		deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *PGBookingRepository) CreateSupportRequest(ctx context.Context, req *domain.SupportRequest) error {
	return r.db.QueryRow(ctx, `INSERT INTO support_requests (booking_reference, user_id, category, priority, message)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		req.BookingReference, req.UserID, req.Category, req.Priority, req.Message).
		Scan(&req.ID, &req.CreatedAt)
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	var passengers []byte
	err := row.Scan(&b.ID, &b.Reference, &b.UserID, &b.TripID, &b.Origin, &b.Destination,
		&b.DepartureTime, &b.ArrivalTime, &b.Duration, &b.OperatorName, &b.SeatNumbers, &passengers,
		&b.Status, &b.TotalAmountCents, &b.BaseFareCents, &b.TaxesCents, &b.DiscountCents,
		&b.PaymentStatus, &b.PaymentMethod, &b.TransactionID, &b.BookingDate,
		&b.LastModified, &b.CancellationDate, &b.CancellationReason, &b.RefundAmountCents,
		&b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(passengers) > 0 {
		if err := json.Unmarshal(passengers, &b.Passengers); err != nil {
			return nil, fmt.Errorf("decode passengers: %w", err)
		}
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
