// Package spendgate is a Go client for the spendgate recent-spend circuit breaker.
//
// The breaker answers one question per TCP connection: was any cost billed
// today or yesterday (UTC)? Callers use the answer to gate other work.
//
//	client := spendgate.New("breaker.internal:5555",
//	    spendgate.WithTimeout(30*time.Second),
//	)
//	ok, err := client.Status(ctx)
//	if err != nil || !ok {
//	    // no verified recent spend: halt
//	}
package spendgate
