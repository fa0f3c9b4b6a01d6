package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vkirilenko/busbooker/internal/domain"
	"github.com/vkirilenko/busbooker/internal/kafka"
	"github.com/vkirilenko/busbooker/internal/payment"
	"github.com/vkirilenko/busbooker/internal/pricing"
	"github.com/vkirilenko/busbooker/internal/refund"
	"github.com/vkirilenko/busbooker/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrNotModifiable  = errors.New("booking cannot be modified")
	ErrNotCancellable = errors.New("booking cannot be cancelled")
	ErrTripDeparted   = errors.New("trip has already departed")
	ErrSeatTaken      = errors.New("seat is already being booked")
)

type BookingUseCase interface {
	Create(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	Get(ctx context.Context, userID int64, reference string) (*domain.Booking, error)
	List(ctx context.Context, userID int64, criteria domain.FilterCriteria) ([]domain.Booking, error)
	Modify(ctx context.Context, userID int64, reference string, input ModificationInput) (*domain.Booking, error)
	RefundQuote(ctx context.Context, userID int64, reference string) (*refund.Quote, error)
	Cancel(ctx context.Context, userID int64, reference, reason string) (*domain.Booking, error)
	CompleteDeparted(ctx context.Context) ([]domain.Booking, error)
	RequestSupport(ctx context.Context, input SupportInput) (*domain.SupportRequest, error)
}

type Cache interface {
	AcquireSeatLock(ctx context.Context, tripID int64, seat string, ttl time.Duration) (bool, error)
	ReleaseSeatLock(ctx context.Context, tripID int64, seat string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type MetricsRecorder interface {
	BookingCreated()
	BookingCancelled(refundCents int64)
	BookingsCompleted(n int)
}

type BookingService struct {
	bookings           repository.BookingRepository
	trips              repository.TripRepository
	cache              Cache
	producer           Producer
	payments           payment.Processor
	metrics            MetricsRecorder
	logger             *zap.Logger
	bookingTopic       string
	notificationsTopic string
	seatLockTTL        time.Duration
	serviceFeeCents    int64
	taxRateBps         int64
}

type CreateBookingInput struct {
	UserID        int64
	TripID        int64
	Passengers    []domain.Passenger
	PromoCode     string
	UseLoyalty    bool
	PaymentMethod string
}

type ModificationInput struct {
	Type           string
	NewDate        string
	NewTime        string
	SeatPreference string
	Notes          string
}

type SupportInput struct {
	UserID    int64
	Reference string
	Category  string
	Priority  domain.SupportPriority
	Message   string
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithMetrics(m MetricsRecorder) BookingServiceOption {
	return func(s *BookingService) {
		s.metrics = m
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	trips repository.TripRepository,
	cache Cache,
	producer Producer,
	payments payment.Processor,
	logger *zap.Logger,
	bookingTopic string,
	seatLockTTL time.Duration,
	serviceFeeCents, taxRateBps int64,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:        bookings,
		trips:           trips,
		cache:           cache,
		producer:        producer,
		payments:        payments,
		logger:          logger,
		bookingTopic:    bookingTopic,
		seatLockTTL:     seatLockTTL,
		serviceFeeCents: serviceFeeCents,
		taxRateBps:      taxRateBps,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) Create(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	trip, err := s.trips.GetByID(ctx, input.TripID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if !trip.DepartureTime.After(now) {
		return nil, ErrTripDeparted
	}

	quote, err := pricing.Calculate(pricing.Input{
		BaseFareCents:   trip.BaseFareCents,
		PassengerCount:  len(input.Passengers),
		TaxesCents:      trip.BaseFareCents * int64(len(input.Passengers)) * s.taxRateBps / 10000,
		ServiceFeeCents: s.serviceFeeCents,
		PromoCode:       input.PromoCode,
		UseLoyalty:      input.UseLoyalty,
	})
	if err != nil {
		return nil, err
	}

	seats := seatNumbers(input.Passengers)
	locked, err := s.lockSeats(ctx, trip.ID, seats)
	if err != nil {
		s.releaseSeats(ctx, trip.ID, locked)
		return nil, err
	}
	defer s.releaseSeats(ctx, trip.ID, locked)

	result, err := s.payments.Process(ctx, quote.TotalCents, input.PaymentMethod)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		Reference:        newReference(now),
		UserID:           input.UserID,
		TripID:           trip.ID,
		Origin:           trip.Origin,
		Destination:      trip.Destination,
		DepartureTime:    trip.DepartureTime,
		ArrivalTime:      trip.ArrivalTime,
		Duration:         trip.Duration,
		OperatorName:     trip.OperatorName,
		SeatNumbers:      seats,
		Passengers:       input.Passengers,
		Status:           domain.BookingStatusConfirmed,
		TotalAmountCents: quote.TotalCents,
		BaseFareCents:    quote.BaseFareCents * int64(quote.PassengerCount),
		TaxesCents:       quote.TaxesCents + quote.ServiceFeeCents,
		DiscountCents:    quote.DiscountCents(),
		PaymentStatus:    domain.PaymentStatusPaid,
		PaymentMethod:    input.PaymentMethod,
		TransactionID:    result.TransactionID,
		BookingDate:      now,
	}
	if !result.Paid {
		booking.Status = domain.BookingStatusPending
		booking.PaymentStatus = domain.PaymentStatusPending
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BookingCreated()
	}
	s.publish(ctx, "booking_created", booking)
	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, userID int64, reference string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return booking, nil
}

func (s *BookingService) List(ctx context.Context, userID int64, criteria domain.FilterCriteria) ([]domain.Booking, error) {
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.FilterBookings(bookings, criteria, time.Now()), nil
}

// Modify files a modification request: the booking drops back to pending
// until an agent reviews it. Only bookings passing CanModify may enter.
func (s *BookingService) Modify(ctx context.Context, userID int64, reference string, input ModificationInput) (*domain.Booking, error) {
	current, err := s.Get(ctx, userID, reference)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if !current.CanModify(now) {
		return nil, ErrNotModifiable
	}

	updated, err := s.bookings.MarkPending(ctx, reference, now)
	if err != nil {
		return nil, err
	}
	s.logger.Info("modification requested",
		zap.String("reference", reference),
		zap.String("type", input.Type))
	s.publish(ctx, "booking_modified", updated)
	return updated, nil
}

func (s *BookingService) RefundQuote(ctx context.Context, userID int64, reference string) (*refund.Quote, error) {
	booking, err := s.Get(ctx, userID, reference)
	if err != nil {
		return nil, err
	}
	if !booking.CanCancel(time.Now()) {
		return nil, ErrNotCancellable
	}
	quote := refund.Evaluate(booking.TotalAmountCents, booking.DepartureTime, time.Now())
	return &quote, nil
}

func (s *BookingService) Cancel(ctx context.Context, userID int64, reference, reason string) (*domain.Booking, error) {
	current, err := s.Get(ctx, userID, reference)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if !current.CanCancel(now) {
		return nil, ErrNotCancellable
	}

	quote := refund.Evaluate(current.TotalAmountCents, current.DepartureTime, now)
	updated, err := s.bookings.MarkCancelled(ctx, reference, reason, quote.RefundAmountCents, now)
	if err != nil {
		return nil, err
	}

	if err := s.trips.ReleaseSeats(ctx, updated.TripID, len(updated.SeatNumbers)); err != nil {
		s.logger.Warn("release seats failed", zap.String("reference", reference), zap.Error(err))
	}
	s.releaseSeats(ctx, updated.TripID, updated.SeatNumbers)

	if s.metrics != nil {
		s.metrics.BookingCancelled(quote.RefundAmountCents)
	}
	s.publish(ctx, "booking_cancelled", updated)
	return updated, nil
}

// CompleteDeparted flips departed active bookings to completed. Called from
// the worker sweep.
func (s *BookingService) CompleteDeparted(ctx context.Context) ([]domain.Booking, error) {
	completed, err := s.bookings.CompleteDeparted(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	for i := range completed {
		s.publish(ctx, "booking_completed", &completed[i])
	}
	if s.metrics != nil && len(completed) > 0 {
		s.metrics.BookingsCompleted(len(completed))
	}
	return completed, nil
}

func (s *BookingService) RequestSupport(ctx context.Context, input SupportInput) (*domain.SupportRequest, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, errors.New("message is required")
	}
	if input.Priority == "" {
		input.Priority = domain.SupportPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, errors.New("unknown priority")
	}

	booking, err := s.Get(ctx, input.UserID, input.Reference)
	if err != nil {
		return nil, err
	}

	req := &domain.SupportRequest{
		BookingReference: booking.Reference,
		UserID:           input.UserID,
		Category:         input.Category,
		Priority:         input.Priority,
		Message:          input.Message,
	}
	if err := s.bookings.CreateSupportRequest(ctx, req); err != nil {
		return nil, err
	}
	s.publish(ctx, "support_requested", booking)
	return req, nil
}

func (s *BookingService) lockSeats(ctx context.Context, tripID int64, seats []string) ([]string, error) {
	if s.cache == nil {
		return nil, nil
	}
	locked := make([]string, 0, len(seats))
	for _, seat := range seats {
		ok, err := s.cache.AcquireSeatLock(ctx, tripID, seat, s.seatLockTTL)
		if err != nil {
			return locked, err
		}
		if !ok {
			return locked, ErrSeatTaken
		}
		locked = append(locked, seat)
	}
	return locked, nil
}

func (s *BookingService) releaseSeats(ctx context.Context, tripID int64, seats []string) {
	if s.cache == nil {
		return
	}
	for _, seat := range seats {
		_ = s.cache.ReleaseSeatLock(ctx, tripID, seat)
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:             eventType,
		Reference:        booking.Reference,
		UserID:           booking.UserID,
		TripID:           booking.TripID,
		Origin:           booking.Origin,
		Destination:      booking.Destination,
		DepartureTime:    booking.DepartureTime,
		Status:           string(booking.Status),
		TotalAmountCents: booking.TotalAmountCents,
		OccurredAt:       time.Now(),
	}
	if booking.RefundAmountCents != nil {
		event.RefundCents = *booking.RefundAmountCents
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.Reference, event); err != nil {
		s.logger.Warn("publish event failed",
			zap.String("type", eventType),
			zap.String("reference", booking.Reference),
			zap.Error(err))
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.Reference, event); err != nil {
			s.logger.Warn("publish notification failed",
				zap.String("type", eventType),
				zap.String("reference", booking.Reference),
				zap.Error(err))
		}
	}
}

func validateCreateInput(input CreateBookingInput) error {
	if len(input.Passengers) == 0 {
		return errors.New("at least one passenger is required")
	}
	if input.PaymentMethod == "" {
		return errors.New("payment method is required")
	}
	seen := make(map[string]struct{}, len(input.Passengers))
	for _, p := range input.Passengers {
		if strings.TrimSpace(p.Name) == "" {
			return errors.New("passenger name is required")
		}
		seat := strings.ToUpper(strings.TrimSpace(p.SeatNumber))
		if seat == "" {
			return errors.New("every passenger needs a seat number")
		}
		if _, dup := seen[seat]; dup {
			return errors.New("duplicate seat number")
		}
		seen[seat] = struct{}{}
	}
	return nil
}

func seatNumbers(passengers []domain.Passenger) []string {
	seats := make([]string, 0, len(passengers))
	for _, p := range passengers {
		seats = append(seats, strings.ToUpper(strings.TrimSpace(p.SeatNumber)))
	}
	return seats
}

func newReference(now time.Time) string {
	return "BUS-" + now.Format("2006") + "-" + strings.ToUpper(uuid.NewString()[:8])
}

var _ BookingUseCase = (*BookingService)(nil)
