// Package refund implements the cancellation refund policy. The tier table is
// the contract printed on every ticket; change it and you change what
// customers were promised.
package refund

import "time"

type Quote struct {
	RefundPercentage     int
	RefundAmountCents    int64
	CancellationFeeCents int64
	ProcessingTime       string
}

type tier struct {
	minHours       float64
	percentage     int
	processingTime string
}

// First matching tier wins; thresholds are inclusive on the lower bound.
var tiers = []tier{
	{24, 90, "3-5 business days"},
	{12, 75, "5-7 business days"},
	{6, 50, "5-7 business days"},
}

// Evaluate quotes a refund for cancelling at instant now a booking departing
// at departure. Less than six hours out there is no refund and the full
// amount is kept as the fee.
func Evaluate(totalAmountCents int64, departure, now time.Time) Quote {
	hoursUntilDeparture := departure.Sub(now).Hours()

	percentage := 0
	processingTime := "5-7 business days"
	for _, t := range tiers {
		if hoursUntilDeparture >= t.minHours {
			percentage = t.percentage
			processingTime = t.processingTime
			break
		}
	}

	refund := totalAmountCents * int64(percentage) / 100
	return Quote{
		RefundPercentage:     percentage,
		RefundAmountCents:    refund,
		CancellationFeeCents: totalAmountCents - refund,
		ProcessingTime:       processingTime,
	}
}
