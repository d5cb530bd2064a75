package spendgate

import "errors"

var (
	// ErrUnknownCommand is returned when the breaker rejects the command.
	ErrUnknownCommand = errors.New("spendgate: unknown command")
	// ErrUnexpectedReply is returned for any reply outside the protocol.
	ErrUnexpectedReply = errors.New("spendgate: unexpected reply")
)
