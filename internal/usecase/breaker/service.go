package breaker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spendgate/internal/domain/billing"
	logpkg "github.com/kailas-cloud/spendgate/internal/logger"
	"github.com/kailas-cloud/spendgate/internal/metrics"
)

// Service answers whether any cost was billed today or yesterday (UTC).
type Service struct {
	usage  UsageFetcher
	logger *zap.Logger
}

// New creates a Service.
func New(usage UsageFetcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{usage: usage, logger: logger}
}

// CheckRecentCost queries today, then yesterday, and combines them.
// A failed day contributes zero without affecting the other.
func (s *Service) CheckRecentCost(ctx context.Context, now time.Time) billing.Verdict {
	today := billing.DateOf(now)

	todayUsage := s.usage.FetchUsage(ctx, today)
	yesterdayUsage := s.usage.FetchUsage(ctx, today.Prev())

	v := billing.NewVerdict(today, todayUsage, yesterdayUsage)

	metrics.VerdictsTotal.WithLabelValues(v.Label()).Inc()
	logpkg.FromContext(ctx, s.logger).Debug("recent cost checked",
		zap.Stringer("today", v.Today),
		zap.Stringer("today_usage", v.TodayUsage),
		zap.Stringer("yesterday", v.Yesterday),
		zap.Stringer("yesterday_usage", v.PrevUsage),
		zap.Bool("cost_observed", v.CostObserved),
	)

	return v
}
