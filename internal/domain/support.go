package domain

import "time"

type SupportPriority string

const (
	SupportPriorityLow    SupportPriority = "low"
	SupportPriorityMedium SupportPriority = "medium"
	SupportPriorityHigh   SupportPriority = "high"
	SupportPriorityUrgent SupportPriority = "urgent"
)

type SupportRequest struct {
	ID               int64
	BookingReference string
	UserID           int64
	Category         string
	Priority         SupportPriority
	Message          string
	CreatedAt        time.Time
}

// ResponseWindow is the promised first-response time for a priority.
func (p SupportPriority) ResponseWindow() string {
	switch p {
	case SupportPriorityUrgent:
		return "Within 1 hour"
	case SupportPriorityHigh:
		return "Within 4 hours"
	case SupportPriorityMedium:
		return "Within 24 hours"
	default:
		return "Within 48 hours"
	}
}

func (p SupportPriority) Valid() bool {
	switch p {
	case SupportPriorityLow, SupportPriorityMedium, SupportPriorityHigh, SupportPriorityUrgent:
		return true
	}
	return false
}
