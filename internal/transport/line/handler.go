// Package line implements the breaker's line-oriented TCP protocol.
package line

import (
	"context"
	"time"

	"github.com/kailas-cloud/spendgate/internal/domain/billing"
	"github.com/kailas-cloud/spendgate/internal/domain/command"
	"github.com/kailas-cloud/spendgate/internal/metrics"
)

// Reply lines. Every reply is exactly one of these.
const (
	ReplyTrue           = "TRUE\n"
	ReplyFalse          = "FALSE\n"
	ReplyUnknownCommand = "ERR Unknown Command\n"
)

// CostChecker produces the recent-cost verdict for an instant.
type CostChecker interface {
	CheckRecentCost(ctx context.Context, now time.Time) billing.Verdict
}

// Handler turns one received line into one reply line. It does no socket I/O.
type Handler struct {
	breaker CostChecker
	now     func() time.Time
}

// NewHandler creates a Handler using the wall clock.
func NewHandler(breaker CostChecker) *Handler {
	return &Handler{breaker: breaker, now: time.Now}
}

// WithClock overrides the clock used to pick "today".
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// Handle parses line and returns the reply to write back.
func (h *Handler) Handle(ctx context.Context, line []byte) []byte {
	_, reply := h.dispatch(ctx, line)
	return []byte(reply)
}

func (h *Handler) dispatch(ctx context.Context, line []byte) (command.Command, string) {
	cmd := command.Parse(line)
	metrics.CommandsTotal.WithLabelValues(cmd.String()).Inc()

	switch cmd {
	case command.Status:
		if h.breaker.CheckRecentCost(ctx, h.now()).CostObserved {
			return cmd, ReplyTrue
		}
		return cmd, ReplyFalse
	default:
		return cmd, ReplyUnknownCommand
	}
}
