package email

import (
	"context"
	"fmt"

	"github.com/vkirilenko/busbooker/internal/kafka"
	"go.uber.org/zap"
)

// Sender turns booking events into customer notifications. The transport is a
// log line for now; the worker hands it every event from the notifications
// topic.
type Sender struct {
	logger *zap.Logger
}

func NewSender(logger *zap.Logger) *Sender {
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	s.logger.Info("notification sent",
		zap.String("type", event.Type),
		zap.String("reference", event.Reference),
		zap.String("subject", subjectFor(event)))
	return nil
}

func subjectFor(event kafka.BookingEvent) string {
	route := fmt.Sprintf("%s - %s", event.Origin, event.Destination)
	switch event.Type {
	case "booking_created":
		return fmt.Sprintf("Booking %s confirmed: %s", event.Reference, route)
	case "booking_modified":
		return fmt.Sprintf("Modification request received for %s", event.Reference)
	case "booking_cancelled":
		return fmt.Sprintf("Booking %s cancelled, refund %.2f", event.Reference, float64(event.RefundCents)/100)
	case "booking_completed":
		return fmt.Sprintf("How was your trip? %s", route)
	case "support_requested":
		return fmt.Sprintf("Support request received for %s", event.Reference)
	default:
		return fmt.Sprintf("Update on booking %s", event.Reference)
	}
}
