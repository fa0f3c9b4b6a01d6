package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vkirilenko/busbooker/internal/domain"
	"github.com/vkirilenko/busbooker/internal/repository"
	"github.com/vkirilenko/busbooker/internal/service/trips"
)

type TripHandler struct {
	service trips.TripUseCase
}

type tripResponse struct {
	ID                int64  `json:"id"`
	Origin            string `json:"origin"`
	Destination       string `json:"destination"`
	DepartureTime     string `json:"departure_time"`
	ArrivalTime       string `json:"arrival_time"`
	Duration          string `json:"duration"`
	DistanceMiles     int    `json:"distance_miles"`
	Operator          string `json:"operator"`
	BusType           string `json:"bus_type"`
	BusNumber         string `json:"bus_number"`
	DepartureTerminal string `json:"departure_terminal"`
	ArrivalTerminal   string `json:"arrival_terminal"`
	TotalSeats        int    `json:"total_seats"`
	AvailableSeats    int    `json:"available_seats"`
	BaseFare          string `json:"base_fare"`
}

func NewTripHandler(service trips.TripUseCase) *TripHandler {
	return &TripHandler{service: service}
}

func (h *TripHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.search)
	router.GET("/:id", h.get)
}

func (h *TripHandler) search(c *gin.Context) {
	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = &parsed
	}

	found, err := h.service.Search(c.Request.Context(), c.Query("origin"), c.Query("destination"), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]tripResponse, 0, len(found))
	for i := range found {
		out = append(out, toTripResponse(&found[i]))
	}
	c.JSON(http.StatusOK, gin.H{"trips": out})
}

func (h *TripHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}

	trip, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if err == repository.ErrTripNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toTripResponse(trip))
}

func toTripResponse(t *domain.Trip) tripResponse {
	return tripResponse{
		ID:                t.ID,
		Origin:            t.Origin,
		Destination:       t.Destination,
		DepartureTime:     t.DepartureTime.Format(time.RFC3339),
		ArrivalTime:       t.ArrivalTime.Format(time.RFC3339),
		Duration:          t.Duration,
		DistanceMiles:     t.DistanceMiles,
		Operator:          t.OperatorName,
		BusType:           t.BusType,
		BusNumber:         t.BusNumber,
		DepartureTerminal: t.DepartureTerminal,
		ArrivalTerminal:   t.ArrivalTerminal,
		TotalSeats:        t.TotalSeats,
		AvailableSeats:    t.AvailableSeats,
		BaseFare:          formatCents(t.BaseFareCents),
	}
}
