package payment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSimulatedProcessor_Success(t *testing.T) {
	p := NewSimulatedProcessor(time.Millisecond, time.Second, zap.NewNop())

	res, err := p.Process(context.Background(), 18962, "credit-card")

	assert.NoError(t, err)
	assert.True(t, res.Paid)
	assert.True(t, strings.HasPrefix(res.TransactionID, "TXN-"))
	assert.Len(t, res.TransactionID, 16)
}

func TestSimulatedProcessor_Decline(t *testing.T) {
	p := NewSimulatedProcessor(time.Millisecond, time.Second, zap.NewNop())

	res, err := p.Process(context.Background(), 18962, "TEST-DECLINE")

	assert.ErrorIs(t, err, ErrDeclined)
	assert.Nil(t, res)
}

func TestSimulatedProcessor_Timeout(t *testing.T) {
	p := NewSimulatedProcessor(time.Second, 5*time.Millisecond, zap.NewNop())

	res, err := p.Process(context.Background(), 18962, "credit-card")

	assert.ErrorIs(t, err, ErrTimedOut)
	assert.Nil(t, res)
}

func TestSimulatedProcessor_ContextCancelled(t *testing.T) {
	p := NewSimulatedProcessor(time.Second, time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := p.Process(ctx, 18962, "credit-card")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestSimulatedProcessor_UniqueTransactionIDs(t *testing.T) {
	p := NewSimulatedProcessor(0, time.Second, zap.NewNop())

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		res, err := p.Process(context.Background(), 100, "credit-card")
		assert.NoError(t, err)
		assert.False(t, seen[res.TransactionID])
		seen[res.TransactionID] = true
	}
}
