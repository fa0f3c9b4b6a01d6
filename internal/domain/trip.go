package domain

import "time"

type Trip struct {
	ID                int64
	Origin            string
	Destination       string
	DepartureTime     time.Time
	ArrivalTime       time.Time
	Duration          string
	DistanceMiles     int
	OperatorName      string
	BusType           string
	BusNumber         string
	DepartureTerminal string
	ArrivalTerminal   string
	TotalSeats        int
	AvailableSeats    int
	BaseFareCents     int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
