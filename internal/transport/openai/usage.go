package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/spendgate/internal/domain/billing"
	logpkg "github.com/kailas-cloud/spendgate/internal/logger"
	"github.com/kailas-cloud/spendgate/internal/metrics"
)

// maxBodyBytes bounds how much of a billing response is read.
const maxBodyBytes = 1 << 20

// UsageClient queries the dashboard billing usage endpoint for a single day.
type UsageClient struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Config holds the billing usage client settings.
type Config struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 = unlimited
	HTTPClient        *http.Client
	Logger            *zap.Logger
}

// NewUsageClient creates a billing usage client. HTTPClient defaults to one with cfg.Timeout.
func NewUsageClient(cfg *Config) (*UsageClient, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &UsageClient{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    hc,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}, nil
}

// FetchUsage returns the total usage in cents accrued on date, or billing.Failed().
// Errors never escape: every failure is logged, counted and reported as Failed.
func (c *UsageClient) FetchUsage(ctx context.Context, date billing.Date) billing.UsageResult {
	start := time.Now()

	cents, err := c.fetch(ctx, date)

	duration := time.Since(start)
	log := logpkg.FromContext(ctx, c.logger)
	metrics.UpstreamRequestDuration.Observe(duration.Seconds())

	if err != nil {
		errType := classifyError(err)
		metrics.UpstreamRequestsTotal.WithLabelValues("error").Inc()
		metrics.UpstreamErrorsTotal.WithLabelValues(errType).Inc()
		log.Warn("billing usage query failed, counting as zero",
			zap.Stringer("date", date),
			zap.String("error_type", errType),
			zap.Duration("latency", duration),
			zap.Error(err),
		)
		return billing.Failed()
	}

	metrics.UpstreamRequestsTotal.WithLabelValues("success").Inc()
	log.Debug("billing usage fetched",
		zap.Stringer("date", date),
		zap.Int64("total_usage_cents", cents),
		zap.Duration("latency", duration),
	)
	return billing.Amount(cents)
}

func (c *UsageClient) fetch(ctx context.Context, date billing.Date) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("wait for upstream slot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.usageURL(date), http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return 0, fmt.Errorf("%w: %d", billing.ErrUpstreamStatus, resp.StatusCode)
	}

	return parseTotalUsage(io.LimitReader(resp.Body, maxBodyBytes))
}

// usageURL sets start_date and end_date to the same day, keeping any query already in the base URL.
func (c *UsageClient) usageURL(date billing.Date) string {
	u := *c.baseURL
	q := u.Query()
	q.Set("start_date", date.String())
	q.Set("end_date", date.String())
	u.RawQuery = q.Encode()
	return u.String()
}

// parseTotalUsage extracts total_usage (cents) from a billing response body.
// Fractional amounts are truncated toward zero. Strings, nulls, negatives and trailing data are malformed.
func parseTotalUsage(r io.Reader) (int64, error) {
	var body struct {
		TotalUsage json.RawMessage `json:"total_usage"`
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&body); err != nil {
		return 0, fmt.Errorf("decode body: %v: %w", err, billing.ErrMalformedUsage)
	}
	// The body must be exactly one JSON value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("trailing data after body: %w", billing.ErrMalformedUsage)
	}

	raw := bytes.TrimSpace(body.TotalUsage)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("total_usage missing: %w", billing.ErrMalformedUsage)
	}

	var n float64
	if raw[0] == '"' || json.Unmarshal(raw, &n) != nil {
		return 0, fmt.Errorf("total_usage not a number: %s: %w", raw, billing.ErrMalformedUsage)
	}
	if n < 0 || n >= math.MaxInt64 {
		return 0, fmt.Errorf("total_usage out of range: %s: %w", raw, billing.ErrMalformedUsage)
	}

	return int64(n), nil
}

// classifyError maps a fetch error to a bounded metric label.
func classifyError(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, billing.ErrUpstreamStatus):
		return "status"
	case errors.Is(err, billing.ErrMalformedUsage):
		return "malformed"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "transport"
	}
}
