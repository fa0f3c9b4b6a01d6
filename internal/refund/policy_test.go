package refund

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_TierBoundaries(t *testing.T) {
	now := time.Date(2024, 10, 18, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		hours              float64
		expectedPercentage int
	}{
		{24, 90},
		{23.99, 75},
		{12, 75},
		{11.99, 50},
		{6, 50},
		{5.99, 0},
		{0, 0},
	}

	for _, tc := range testCases {
		departure := now.Add(time.Duration(tc.hours * float64(time.Hour)))
		quote := Evaluate(10000, departure, now)
		assert.Equal(t, tc.expectedPercentage, quote.RefundPercentage, "at %v hours", tc.hours)
	}
}

func TestEvaluate_StandardCancellation(t *testing.T) {
	now := time.Now()
	quote := Evaluate(10000, now.Add(30*time.Hour), now)

	assert.Equal(t, 90, quote.RefundPercentage)
	assert.Equal(t, int64(9000), quote.RefundAmountCents)
	assert.Equal(t, int64(1000), quote.CancellationFeeCents)
	assert.Equal(t, "3-5 business days", quote.ProcessingTime)
}

func TestEvaluate_LateCancellation(t *testing.T) {
	now := time.Now()
	quote := Evaluate(10000, now.Add(3*time.Hour), now)

	assert.Equal(t, 0, quote.RefundPercentage)
	assert.Equal(t, int64(0), quote.RefundAmountCents)
	assert.Equal(t, int64(10000), quote.CancellationFeeCents)
	assert.Equal(t, "5-7 business days", quote.ProcessingTime)
}

func TestEvaluate_FeePlusRefundEqualsTotal(t *testing.T) {
	now := time.Now()
	for _, hours := range []time.Duration{48, 18, 8, 1} {
		quote := Evaluate(4500, now.Add(hours*time.Hour), now)
		assert.Equal(t, int64(4500), quote.RefundAmountCents+quote.CancellationFeeCents)
	}
}

func TestEvaluate_SubDayProcessingTime(t *testing.T) {
	now := time.Now()
	quote := Evaluate(10000, now.Add(13*time.Hour), now)
	assert.Equal(t, "5-7 business days", quote.ProcessingTime)
}
