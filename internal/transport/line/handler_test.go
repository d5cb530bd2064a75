package line

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/spendgate/internal/domain/billing"
	"github.com/kailas-cloud/spendgate/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterBreakerMetrics()
	os.Exit(m.Run())
}

// --- Mock ---

type stubChecker struct {
	observed bool
	calls    atomic.Int32
	started  chan struct{} // closed on the first call, if set
	block    chan struct{} // calls wait on it, if set

	mu      sync.Mutex
	once    sync.Once
	lastNow time.Time
}

func (s *stubChecker) CheckRecentCost(_ context.Context, now time.Time) billing.Verdict {
	s.calls.Add(1)
	s.mu.Lock()
	s.lastNow = now
	s.mu.Unlock()

	if s.started != nil {
		s.once.Do(func() { close(s.started) })
	}
	if s.block != nil {
		<-s.block
	}

	usage := billing.Amount(0)
	if s.observed {
		usage = billing.Amount(1)
	}
	return billing.NewVerdict(billing.DateOf(now), usage, billing.Amount(0))
}

type panicChecker struct{}

func (panicChecker) CheckRecentCost(context.Context, time.Time) billing.Verdict {
	panic("boom")
}

// --- Tests ---

func TestHandle(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		observed  bool
		want      string
		wantCalls int
	}{
		{"status true", "STATUS\n", true, "TRUE\n", 1},
		{"status false", "STATUS\n", false, "FALSE\n", 1},
		{"lowercase status", "status\n", true, "TRUE\n", 1},
		{"status without newline", "STATUS", false, "FALSE\n", 1},
		{"ping", "PING\n", true, "ERR Unknown Command\n", 0},
		{"empty line", "\n", true, "ERR Unknown Command\n", 0},
		{"no bytes", "", true, "ERR Unknown Command\n", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			checker := &stubChecker{observed: tc.observed}
			h := NewHandler(checker)

			got := string(h.Handle(context.Background(), []byte(tc.line)))
			if got != tc.want {
				t.Errorf("Handle(%q) = %q, want %q", tc.line, got, tc.want)
			}
			if got := int(checker.calls.Load()); got != tc.wantCalls {
				t.Errorf("expected %d breaker calls, got %d", tc.wantCalls, got)
			}
		})
	}
}

func TestHandle_UsesClock(t *testing.T) {
	fixed := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	checker := &stubChecker{}
	h := NewHandler(checker).WithClock(func() time.Time { return fixed })

	h.Handle(context.Background(), []byte("STATUS\n"))

	checker.mu.Lock()
	defer checker.mu.Unlock()
	if !checker.lastNow.Equal(fixed) {
		t.Errorf("expected clock %s, got %s", fixed, checker.lastNow)
	}
}

func TestHandle_CountsCommands(t *testing.T) {
	h := NewHandler(&stubChecker{})

	before := testutil.ToFloat64(metrics.CommandsTotal.WithLabelValues("unknown"))
	h.Handle(context.Background(), []byte("PING\n"))
	after := testutil.ToFloat64(metrics.CommandsTotal.WithLabelValues("unknown"))

	if after-before != 1 {
		t.Errorf("expected commands_total{unknown} +1, got %f", after-before)
	}
}
