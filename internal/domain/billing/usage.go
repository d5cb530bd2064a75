package billing

// UsageResult is the outcome of one billing usage query: an amount in cents, or Failed.
// The zero value is Failed.
type UsageResult struct {
	cents int64
	ok    bool
}

// Amount is a successful query returning cents (negative values are clamped to 0).
func Amount(cents int64) UsageResult {
	if cents < 0 {
		cents = 0
	}
	return UsageResult{cents: cents, ok: true}
}

// Failed is a query that did not yield a usable amount.
func Failed() UsageResult {
	return UsageResult{}
}

// Cents returns the amount and true, or 0 and false for Failed.
func (r UsageResult) Cents() (int64, bool) {
	return r.cents, r.ok
}

// Contribution is the amount this result adds to the recent-cost sum. Failed counts as 0.
func (r UsageResult) Contribution() int64 {
	if cents, ok := r.Cents(); ok {
		return cents
	}
	return 0
}

// String is used in log fields.
func (r UsageResult) String() string {
	if !r.ok {
		return "failed"
	}
	return formatCents(r.cents)
}
