package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vkirilenko/busbooker/internal/domain"
)

var ErrTripNotFound = errors.New("trip not found")

type TripRepository interface {
	Search(ctx context.Context, origin, destination string, date *time.Time) ([]domain.Trip, error)
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)
	ReleaseSeats(ctx context.Context, tripID int64, count int) error
}

const tripColumns = `id, origin, destination, departure_time, arrival_time, duration, distance_miles,
	operator_name, bus_type, bus_number, departure_terminal, arrival_terminal, total_seats,
	available_seats, base_fare_cents, created_at, updated_at`

type PGTripRepository struct {
	db *pgxpool.Pool
}

func NewTripRepository(db *pgxpool.Pool) TripRepository {
	return &PGTripRepository{db: db}
}

func (r *PGTripRepository) Search(ctx context.Context, origin, destination string, date *time.Time) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, `SELECT `+tripColumns+` FROM trips
		WHERE ($1 = '' OR lower(origin) = lower($1))
		  AND ($2 = '' OR lower(destination) = lower($2))
		  AND ($3::date IS NULL OR departure_time::date = $3::date)
		ORDER BY departure_time`, origin, destination, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]domain.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}

func (r *PGTripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id=$1`, id)
	return scanTrip(row)
}

// ReleaseSeats returns seats taken by a cancelled booking to the trip pool.
func (r *PGTripRepository) ReleaseSeats(ctx context.Context, tripID int64, count int) error {
	cmd, err := r.db.Exec(ctx, `UPDATE trips SET available_seats = available_seats + $2, updated_at = now()
		WHERE id = $1`, tripID, count)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTripNotFound
	}
	return nil
}

func scanTrip(row pgx.Row) (*domain.Trip, error) {
	var t domain.Trip
	err := row.Scan(&t.ID, &t.Origin, &t.Destination, &t.DepartureTime, &t.ArrivalTime, &t.Duration,
		&t.DistanceMiles, &t.OperatorName, &t.BusType, &t.BusNumber, &t.DepartureTerminal,
		&t.ArrivalTerminal, &t.TotalSeats, &t.AvailableSeats, &t.BaseFareCents, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var _ TripRepository = (*PGTripRepository)(nil)
