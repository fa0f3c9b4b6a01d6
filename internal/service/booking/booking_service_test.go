package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vkirilenko/busbooker/internal/domain"
	"github.com/vkirilenko/busbooker/internal/payment"
	"github.com/vkirilenko/busbooker/internal/pricing"
	"github.com/vkirilenko/busbooker/internal/repository"
	"go.uber.org/zap"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) MarkPending(ctx context.Context, reference string, modifiedAt time.Time) (*domain.Booking, error) {
	args := m.Called(ctx, reference, modifiedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) MarkCancelled(ctx context.Context, reference, reason string, refundCents int64, cancelledAt time.Time) (*domain.Booking, error) {
	args := m.Called(ctx, reference, reason, refundCents, cancelledAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) CompleteDeparted(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, deadline)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) CreateSupportRequest(ctx context.Context, req *domain.SupportRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type MockTripRepository struct {
	mock.Mock
}

func (m *MockTripRepository) Search(ctx context.Context, origin, destination string, date *time.Time) ([]domain.Trip, error) {
	args := m.Called(ctx, origin, destination, date)
	return args.Get(0).([]domain.Trip), args.Error(1)
}

func (m *MockTripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripRepository) ReleaseSeats(ctx context.Context, tripID int64, count int) error {
	args := m.Called(ctx, tripID, count)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) AcquireSeatLock(ctx context.Context, tripID int64, seat string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, tripID, seat, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) ReleaseSeatLock(ctx context.Context, tripID int64, seat string) error {
	args := m.Called(ctx, tripID, seat)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context, amountCents int64, method string) (*payment.Result, error) {
	args := m.Called(ctx, amountCents, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Result), args.Error(1)
}

type serviceMocks struct {
	bookings  *MockBookingRepository
	trips     *MockTripRepository
	cache     *MockCache
	producer  *MockProducer
	processor *MockProcessor
}

func newTestService(t *testing.T) (*BookingService, *serviceMocks) {
	t.Helper()
	m := &serviceMocks{
		bookings:  &MockBookingRepository{},
		trips:     &MockTripRepository{},
		cache:     &MockCache{},
		producer:  &MockProducer{},
		processor: &MockProcessor{},
	}
	svc := NewBookingService(
		m.bookings, m.trips, m.cache, m.producer, m.processor,
		zap.NewNop(), "booking-events", 10*time.Minute, 450, 400,
	)
	return svc, m
}

func testTrip(departure time.Time) *domain.Trip {
	return &domain.Trip{
		ID:             4,
		Origin:         "New York",
		Destination:    "Washington DC",
		DepartureTime:  departure,
		ArrivalTime:    departure.Add(4*time.Hour + 15*time.Minute),
		Duration:       "4h 15m",
		OperatorName:   "Greyhound Lines",
		TotalSeats:     40,
		AvailableSeats: 12,
		BaseFareCents:  8900,
	}
}

func TestBookingService_Create_Success(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()
	trip := testTrip(time.Now().Add(48 * time.Hour))

	input := CreateBookingInput{
		UserID: 7,
		TripID: 4,
		Passengers: []domain.Passenger{
			{Name: "John Smith", Age: 32, Gender: "Male", Phone: "+1-555-0123", SeatNumber: "12A"},
			{Name: "Jane Smith", Age: 29, Gender: "Female", Phone: "+1-555-0124", SeatNumber: "12B"},
		},
		PaymentMethod: "credit-card",
	}

	m.trips.On("GetByID", ctx, int64(4)).Return(trip, nil).Once()
	m.cache.On("AcquireSeatLock", ctx, int64(4), "12A", 10*time.Minute).Return(true, nil).Once()
	m.cache.On("AcquireSeatLock", ctx, int64(4), "12B", 10*time.Minute).Return(true, nil).Once()
	m.cache.On("ReleaseSeatLock", ctx, int64(4), "12A").Return(nil).Once()
	m.cache.On("ReleaseSeatLock", ctx, int64(4), "12B").Return(nil).Once()
	// 8900*2 base + 712 taxes (4%) + 450 service fee
	m.processor.On("Process", ctx, int64(18962), "credit-card").
		Return(&payment.Result{TransactionID: "TXN-TEST", Paid: true}, nil).Once()
	m.bookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	m.producer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).Return(nil).Once()

	created, err := svc.Create(ctx, input)

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Equal(t, domain.BookingStatusConfirmed, created.Status)
	assert.Equal(t, domain.PaymentStatusPaid, created.PaymentStatus)
	assert.Contains(t, created.Reference, "BUS-")
	assert.Equal(t, []string{"12A", "12B"}, created.SeatNumbers)
	assert.Equal(t, int64(18962), created.TotalAmountCents)
	// totalAmount = baseFare + taxes - discount
	assert.Equal(t, created.TotalAmountCents, created.BaseFareCents+created.TaxesCents-created.DiscountCents)

	m.trips.AssertExpectations(t)
	m.cache.AssertExpectations(t)
	m.processor.AssertExpectations(t)
	m.bookings.AssertExpectations(t)
	m.producer.AssertExpectations(t)
}

func TestBookingService_Create_ValidationErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	testCases := []struct {
		name        string
		input       CreateBookingInput
		expectedErr string
	}{
		{
			name:        "no passengers",
			input:       CreateBookingInput{UserID: 7, TripID: 4, PaymentMethod: "credit-card"},
			expectedErr: "at least one passenger is required",
		},
		{
			name: "missing payment method",
			input: CreateBookingInput{UserID: 7, TripID: 4,
				Passengers: []domain.Passenger{{Name: "John", SeatNumber: "1A"}}},
			expectedErr: "payment method is required",
		},
		{
			name: "missing seat",
			input: CreateBookingInput{UserID: 7, TripID: 4, PaymentMethod: "credit-card",
				Passengers: []domain.Passenger{{Name: "John"}}},
			expectedErr: "every passenger needs a seat number",
		},
		{
			name: "duplicate seat",
			input: CreateBookingInput{UserID: 7, TripID: 4, PaymentMethod: "credit-card",
				Passengers: []domain.Passenger{
					{Name: "John", SeatNumber: "1A"},
					{Name: "Jane", SeatNumber: "1a"},
				}},
			expectedErr: "duplicate seat number",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			created, err := svc.Create(ctx, tc.input)
			assert.Error(t, err)
			assert.Nil(t, created)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}

func TestBookingService_Create_InvalidPromo(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()
	trip := testTrip(time.Now().Add(48 * time.Hour))

	m.trips.On("GetByID", ctx, int64(4)).Return(trip, nil).Once()

	created, err := svc.Create(ctx, CreateBookingInput{
		UserID: 7, TripID: 4, PaymentMethod: "credit-card", PromoCode: "SAVE20",
		Passengers: []domain.Passenger{{Name: "John", SeatNumber: "1A"}},
	})

	assert.ErrorIs(t, err, pricing.ErrInvalidPromoCode)
	assert.Nil(t, created)
	m.cache.AssertNotCalled(t, "AcquireSeatLock")
	m.processor.AssertNotCalled(t, "Process")
}

func TestBookingService_Create_SeatTaken(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()
	trip := testTrip(time.Now().Add(48 * time.Hour))

	m.trips.On("GetByID", ctx, int64(4)).Return(trip, nil).Once()
	m.cache.On("AcquireSeatLock", ctx, int64(4), "12A", 10*time.Minute).Return(true, nil).Once()
	m.cache.On("AcquireSeatLock", ctx, int64(4), "12B", 10*time.Minute).Return(false, nil).Once()
	m.cache.On("ReleaseSeatLock", ctx, int64(4), "12A").Return(nil).Once()

	created, err := svc.Create(ctx, CreateBookingInput{
		UserID: 7, TripID: 4, PaymentMethod: "credit-card",
		Passengers: []domain.Passenger{
			{Name: "John", SeatNumber: "12A"},
			{Name: "Jane", SeatNumber: "12B"},
		},
	})

	assert.ErrorIs(t, err, ErrSeatTaken)
	assert.Nil(t, created)
	m.cache.AssertExpectations(t)
	m.processor.AssertNotCalled(t, "Process")
	m.bookings.AssertNotCalled(t, "Create")
}

func TestBookingService_Create_PaymentDeclined(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()
	trip := testTrip(time.Now().Add(48 * time.Hour))

	m.trips.On("GetByID", ctx, int64(4)).Return(trip, nil).Once()
	m.cache.On("AcquireSeatLock", ctx, int64(4), "12A", 10*time.Minute).Return(true, nil).Once()
	m.cache.On("ReleaseSeatLock", ctx, int64(4), "12A").Return(nil).Once()
	m.processor.On("Process", ctx, mock.Anything, "test-decline").Return(nil, payment.ErrDeclined).Once()

	created, err := svc.Create(ctx, CreateBookingInput{
		UserID: 7, TripID: 4, PaymentMethod: "test-decline",
		Passengers: []domain.Passenger{{Name: "John", SeatNumber: "12A"}},
	})

	assert.ErrorIs(t, err, payment.ErrDeclined)
	assert.Nil(t, created)
	m.cache.AssertExpectations(t)
	m.bookings.AssertNotCalled(t, "Create")
}

func TestBookingService_Create_TripDeparted(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()
	trip := testTrip(time.Now().Add(-time.Hour))

	m.trips.On("GetByID", ctx, int64(4)).Return(trip, nil).Once()

	created, err := svc.Create(ctx, CreateBookingInput{
		UserID: 7, TripID: 4, PaymentMethod: "credit-card",
		Passengers: []domain.Passenger{{Name: "John", SeatNumber: "12A"}},
	})

	assert.ErrorIs(t, err, ErrTripDeparted)
	assert.Nil(t, created)
}

func TestBookingService_Modify_SetsPending(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	existing := &domain.Booking{
		Reference: "BUS-2024-001", UserID: 7, TripID: 4,
		Status:        domain.BookingStatusConfirmed,
		DepartureTime: time.Now().Add(48 * time.Hour),
	}
	modified := time.Now()
	updated := &domain.Booking{
		Reference: "BUS-2024-001", UserID: 7, TripID: 4,
		Status:        domain.BookingStatusPending,
		DepartureTime: existing.DepartureTime,
		LastModified:  &modified,
	}

	m.bookings.On("GetByReference", ctx, "BUS-2024-001").Return(existing, nil).Once()
	m.bookings.On("MarkPending", ctx, "BUS-2024-001", mock.AnythingOfType("time.Time")).Return(updated, nil).Once()
	m.producer.On("Publish", ctx, "booking-events", "BUS-2024-001", mock.Anything).Return(nil).Once()

	got, err := svc.Modify(ctx, 7, "BUS-2024-001", ModificationInput{Type: "date", NewDate: "2024-10-22"})

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, got.Status)
	assert.NotNil(t, got.LastModified)
	m.bookings.AssertExpectations(t)
}

func TestBookingService_Modify_Ineligible(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	testCases := []struct {
		name    string
		booking *domain.Booking
	}{
		{"pending booking", &domain.Booking{Reference: "r", UserID: 7,
			Status: domain.BookingStatusPending, DepartureTime: time.Now().Add(time.Hour)}},
		{"departed booking", &domain.Booking{Reference: "r", UserID: 7,
			Status: domain.BookingStatusConfirmed, DepartureTime: time.Now().Add(-time.Hour)}},
		{"cancelled booking", &domain.Booking{Reference: "r", UserID: 7,
			Status: domain.BookingStatusCancelled, DepartureTime: time.Now().Add(time.Hour)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m.bookings.On("GetByReference", ctx, "r").Return(tc.booking, nil).Once()

			got, err := svc.Modify(ctx, 7, "r", ModificationInput{})
			assert.ErrorIs(t, err, ErrNotModifiable)
			assert.Nil(t, got)
		})
	}
	m.bookings.AssertNotCalled(t, "MarkPending")
}

func TestBookingService_Cancel_ComputesRefund(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	existing := &domain.Booking{
		Reference: "BUS-2024-001", UserID: 7, TripID: 4,
		Status:           domain.BookingStatusConfirmed,
		DepartureTime:    time.Now().Add(30 * time.Hour),
		TotalAmountCents: 10000,
		SeatNumbers:      []string{"12A"},
	}
	refundCents := int64(9000)
	cancelled := *existing
	cancelled.Status = domain.BookingStatusCancelled
	cancelled.RefundAmountCents = &refundCents

	m.bookings.On("GetByReference", ctx, "BUS-2024-001").Return(existing, nil).Once()
	m.bookings.On("MarkCancelled", ctx, "BUS-2024-001", "change_of_plans", int64(9000), mock.AnythingOfType("time.Time")).
		Return(&cancelled, nil).Once()
	m.trips.On("ReleaseSeats", ctx, int64(4), 1).Return(nil).Once()
	m.cache.On("ReleaseSeatLock", ctx, int64(4), "12A").Return(nil).Once()
	m.producer.On("Publish", ctx, "booking-events", "BUS-2024-001", mock.Anything).Return(nil).Once()

	got, err := svc.Cancel(ctx, 7, "BUS-2024-001", "change_of_plans")

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, got.Status)
	assert.Equal(t, int64(9000), *got.RefundAmountCents)
	m.bookings.AssertExpectations(t)
	m.trips.AssertExpectations(t)
}

func TestBookingService_Cancel_Ineligible(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	existing := &domain.Booking{
		Reference: "BUS-2024-003", UserID: 7,
		Status:        domain.BookingStatusCompleted,
		DepartureTime: time.Now().Add(-24 * time.Hour),
	}
	m.bookings.On("GetByReference", ctx, "BUS-2024-003").Return(existing, nil).Once()

	got, err := svc.Cancel(ctx, 7, "BUS-2024-003", "too late")

	assert.ErrorIs(t, err, ErrNotCancellable)
	assert.Nil(t, got)
	m.bookings.AssertNotCalled(t, "MarkCancelled")
}

func TestBookingService_RefundQuote(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	existing := &domain.Booking{
		Reference: "BUS-2024-001", UserID: 7,
		Status:           domain.BookingStatusConfirmed,
		DepartureTime:    time.Now().Add(30 * time.Hour),
		TotalAmountCents: 10000,
	}
	m.bookings.On("GetByReference", ctx, "BUS-2024-001").Return(existing, nil).Twice()

	quote, err := svc.RefundQuote(ctx, 7, "BUS-2024-001")

	assert.NoError(t, err)
	assert.Equal(t, 90, quote.RefundPercentage)
	assert.Equal(t, int64(9000), quote.RefundAmountCents)
	assert.Equal(t, int64(1000), quote.CancellationFeeCents)

	// Quoting is a preview and must not change state.
	again, err := svc.RefundQuote(ctx, 7, "BUS-2024-001")
	assert.NoError(t, err)
	assert.Equal(t, quote, again)
	m.bookings.AssertNotCalled(t, "MarkCancelled")
}

func TestBookingService_Get_OtherUsersBookingHidden(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	existing := &domain.Booking{Reference: "BUS-2024-001", UserID: 99}
	m.bookings.On("GetByReference", ctx, "BUS-2024-001").Return(existing, nil).Once()

	got, err := svc.Get(ctx, 7, "BUS-2024-001")

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Nil(t, got)
}

func TestBookingService_List_AppliesFilter(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	all := []domain.Booking{
		{Reference: "a", UserID: 7, Status: domain.BookingStatusConfirmed, DepartureTime: time.Now().Add(time.Hour)},
		{Reference: "b", UserID: 7, Status: domain.BookingStatusCancelled, DepartureTime: time.Now().Add(time.Hour)},
	}
	m.bookings.On("ListByUser", ctx, int64(7)).Return(all, nil).Once()

	got, err := svc.List(ctx, 7, domain.FilterCriteria{Status: domain.BookingStatusConfirmed})

	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Reference)
}

func TestBookingService_CompleteDeparted(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	departed := []domain.Booking{
		{Reference: "a", Status: domain.BookingStatusCompleted},
		{Reference: "b", Status: domain.BookingStatusCompleted},
	}
	m.bookings.On("CompleteDeparted", ctx, mock.AnythingOfType("time.Time")).Return(departed, nil).Once()
	m.producer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).Return(nil).Twice()

	got, err := svc.CompleteDeparted(ctx)

	assert.NoError(t, err)
	assert.Len(t, got, 2)
	m.producer.AssertExpectations(t)
}

func TestBookingService_RequestSupport(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	existing := &domain.Booking{Reference: "BUS-2024-001", UserID: 7}
	m.bookings.On("GetByReference", ctx, "BUS-2024-001").Return(existing, nil).Once()
	m.bookings.On("CreateSupportRequest", ctx, mock.AnythingOfType("*domain.SupportRequest")).Return(nil).Once()
	m.producer.On("Publish", ctx, "booking-events", "BUS-2024-001", mock.Anything).Return(nil).Once()

	req, err := svc.RequestSupport(ctx, SupportInput{
		UserID: 7, Reference: "BUS-2024-001", Category: "refund", Message: "Where is my refund?",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.SupportPriorityMedium, req.Priority)
	assert.Equal(t, "Within 24 hours", req.Priority.ResponseWindow())
	m.bookings.AssertExpectations(t)
}

func TestBookingService_RequestSupport_EmptyMessage(t *testing.T) {
	svc, _ := newTestService(t)

	req, err := svc.RequestSupport(context.Background(), SupportInput{
		UserID: 7, Reference: "BUS-2024-001", Message: "   ",
	})

	assert.Error(t, err)
	assert.Nil(t, req)
}
