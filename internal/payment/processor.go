// Package payment simulates a card gateway. The latency is fake but the
// boundary is real: every call is context-aware and bounded by a timeout, so
// swapping in an actual gateway client changes nothing upstream.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrDeclined = errors.New("payment declined")
	ErrTimedOut = errors.New("payment timed out")
)

// MethodDecline forces a decline, for exercising the failure path without a
// gateway sandbox.
const MethodDecline = "test-decline"

type Result struct {
	TransactionID string
	Paid          bool
}

type Processor interface {
	Process(ctx context.Context, amountCents int64, method string) (*Result, error)
}

type SimulatedProcessor struct {
	latency time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

func NewSimulatedProcessor(latency, timeout time.Duration, logger *zap.Logger) *SimulatedProcessor {
	return &SimulatedProcessor{latency: latency, timeout: timeout, logger: logger}
}

func (p *SimulatedProcessor) Process(ctx context.Context, amountCents int64, method string) (*Result, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	timer := time.NewTimer(p.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimedOut
		}
		return nil, ctx.Err()
	case <-timer.C:
	}

	if strings.EqualFold(method, MethodDecline) {
		return nil, ErrDeclined
	}

	res := &Result{
		TransactionID: fmt.Sprintf("TXN-%s", strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])),
		Paid:          true,
	}
	p.logger.Info("payment processed",
		zap.String("transaction_id", res.TransactionID),
		zap.Int64("amount_cents", amountCents),
		zap.String("method", method))
	return res, nil
}

var _ Processor = (*SimulatedProcessor)(nil)
