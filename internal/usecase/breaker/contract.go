package breaker

import (
	"context"

	"github.com/kailas-cloud/spendgate/internal/domain/billing"
)

// UsageFetcher reports billing usage for one UTC day. Implementations never fail hard:
// every failure comes back as billing.Failed().
type UsageFetcher interface {
	FetchUsage(ctx context.Context, date billing.Date) billing.UsageResult
}
