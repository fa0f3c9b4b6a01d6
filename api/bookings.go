package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vkirilenko/busbooker/internal/domain"
	"github.com/vkirilenko/busbooker/internal/payment"
	"github.com/vkirilenko/busbooker/internal/pricing"
	"github.com/vkirilenko/busbooker/internal/repository"
	"github.com/vkirilenko/busbooker/internal/service/booking"
	"github.com/vkirilenko/busbooker/internal/ticket"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type passengerRequest struct {
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	Phone      string `json:"phone"`
	SeatNumber string `json:"seat_number"`
}

type createBookingRequest struct {
	TripID           int64              `json:"trip_id"`
	Passengers       []passengerRequest `json:"passengers"`
	PromoCode        string             `json:"promo_code"`
	UseLoyaltyPoints bool               `json:"use_loyalty_points"`
	PaymentMethod    string             `json:"payment_method"`
}

type modifyBookingRequest struct {
	Type           string `json:"type"`
	NewDate        string `json:"new_date"`
	NewTime        string `json:"new_time"`
	SeatPreference string `json:"seat_preference"`
	Notes          string `json:"notes"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

type supportRequest struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

type bookingResponse struct {
	Reference        string             `json:"reference"`
	Origin           string             `json:"origin"`
	Destination      string             `json:"destination"`
	DepartureTime    string             `json:"departure_time"`
	ArrivalTime      string             `json:"arrival_time"`
	Duration         string             `json:"duration"`
	Operator         string             `json:"operator"`
	SeatNumbers      []string           `json:"seat_numbers"`
	Passengers       []passengerRequest `json:"passengers"`
	Status           string             `json:"status"`
	TotalAmount      string             `json:"total_amount"`
	BaseFare         string             `json:"base_fare"`
	Taxes            string             `json:"taxes"`
	Discount         string             `json:"discount"`
	PaymentStatus    string             `json:"payment_status"`
	PaymentMethod    string             `json:"payment_method"`
	TransactionID    string             `json:"transaction_id"`
	BookingDate      string             `json:"booking_date"`
	LastModified     *string            `json:"last_modified,omitempty"`
	CancellationDate *string            `json:"cancellation_date,omitempty"`
	RefundAmount     *string            `json:"refund_amount,omitempty"`
	CanModify        bool               `json:"can_modify"`
	CanCancel        bool               `json:"can_cancel"`
}

type refundQuoteResponse struct {
	RefundPercentage int    `json:"refund_percentage"`
	RefundAmount     string `json:"refund_amount"`
	CancellationFee  string `json:"cancellation_fee"`
	ProcessingTime   string `json:"processing_time"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:reference", h.get)
	router.POST("/:reference/modify", h.modify)
	router.GET("/:reference/refund-quote", h.refundQuote)
	router.POST("/:reference/cancel", h.cancel)
	router.GET("/:reference/ticket", h.downloadTicket)
	router.POST("/:reference/support", h.support)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	passengers := make([]domain.Passenger, 0, len(req.Passengers))
	for _, p := range req.Passengers {
		passengers = append(passengers, domain.Passenger{
			Name: p.Name, Age: p.Age, Gender: p.Gender, Phone: p.Phone, SeatNumber: p.SeatNumber,
		})
	}

	created, err := h.service.Create(c.Request.Context(), booking.CreateBookingInput{
		UserID:        userID(c),
		TripID:        req.TripID,
		Passengers:    passengers,
		PromoCode:     req.PromoCode,
		UseLoyalty:    req.UseLoyaltyPoints,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) list(c *gin.Context) {
	criteria := domain.FilterCriteria{
		SearchTerm: c.Query("search"),
		Status:     domain.BookingStatus(c.Query("status")),
		DateRange:  domain.DateRange(c.Query("date_range")),
		SortBy:     domain.SortKey(c.Query("sort_by")),
	}

	bookings, err := h.service.List(c.Request.Context(), userID(c), criteria)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

func (h *BookingHandler) get(c *gin.Context) {
	found, err := h.service.Get(c.Request.Context(), userID(c), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(found))
}

func (h *BookingHandler) modify(c *gin.Context) {
	var req modifyBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.Modify(c.Request.Context(), userID(c), c.Param("reference"), booking.ModificationInput{
		Type:           req.Type,
		NewDate:        req.NewDate,
		NewTime:        req.NewTime,
		SeatPreference: req.SeatPreference,
		Notes:          req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) refundQuote(c *gin.Context) {
	quote, err := h.service.RefundQuote(c.Request.Context(), userID(c), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, refundQuoteResponse{
		RefundPercentage: quote.RefundPercentage,
		RefundAmount:     formatCents(quote.RefundAmountCents),
		CancellationFee:  formatCents(quote.CancellationFeeCents),
		ProcessingTime:   quote.ProcessingTime,
	})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	var req cancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.Cancel(c.Request.Context(), userID(c), c.Param("reference"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) downloadTicket(c *gin.Context) {
	found, err := h.service.Get(c.Request.Context(), userID(c), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}

	pdf, filename, err := ticket.BuildPDF(found)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *BookingHandler) support(c *gin.Context) {
	var req supportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.RequestSupport(c.Request.Context(), booking.SupportInput{
		UserID:    userID(c),
		Reference: c.Param("reference"),
		Category:  req.Category,
		Priority:  domain.SupportPriority(req.Priority),
		Message:   req.Message,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":              created.ID,
		"reference":       created.BookingReference,
		"priority":        created.Priority,
		"response_window": created.Priority.ResponseWindow(),
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrTripNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrNotModifiable), errors.Is(err, booking.ErrNotCancellable),
		errors.Is(err, booking.ErrSeatTaken), errors.Is(err, repository.ErrNoSeats):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, payment.ErrDeclined):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, payment.ErrTimedOut):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case errors.Is(err, pricing.ErrInvalidPromoCode), errors.Is(err, booking.ErrTripDeparted):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	now := time.Now()
	passengers := make([]passengerRequest, 0, len(b.Passengers))
	for _, p := range b.Passengers {
		passengers = append(passengers, passengerRequest{
			Name: p.Name, Age: p.Age, Gender: p.Gender, Phone: p.Phone, SeatNumber: p.SeatNumber,
		})
	}

	resp := bookingResponse{
		Reference:     b.Reference,
		Origin:        b.Origin,
		Destination:   b.Destination,
		DepartureTime: b.DepartureTime.Format(time.RFC3339),
		ArrivalTime:   b.ArrivalTime.Format(time.RFC3339),
		Duration:      b.Duration,
		Operator:      b.OperatorName,
		SeatNumbers:   b.SeatNumbers,
		Passengers:    passengers,
		Status:        string(b.Status),
		TotalAmount:   formatCents(b.TotalAmountCents),
		BaseFare:      formatCents(b.BaseFareCents),
		Taxes:         formatCents(b.TaxesCents),
		Discount:      formatCents(b.DiscountCents),
		PaymentStatus: string(b.PaymentStatus),
		PaymentMethod: b.PaymentMethod,
		TransactionID: b.TransactionID,
		BookingDate:   b.BookingDate.Format(time.RFC3339),
		CanModify:     b.CanModify(now),
		CanCancel:     b.CanCancel(now),
	}
	if b.LastModified != nil {
		v := b.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	if b.CancellationDate != nil {
		v := b.CancellationDate.Format(time.RFC3339)
		resp.CancellationDate = &v
	}
	if b.RefundAmountCents != nil {
		v := formatCents(*b.RefundAmountCents)
		resp.RefundAmount = &v
	}
	return resp
}

// formatCents renders integer cents as a two-decimal amount for display.
func formatCents(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100)
}
