// Package command parses the breaker's single-line wire commands.
package command

import (
	"bytes"
	"strings"
)

// Command is a parsed breaker command.
type Command int

const (
	// Unknown is any token other than STATUS, including the empty one.
	Unknown Command = iota
	// Status asks for the recent-cost verdict.
	Status
)

// statusToken is the only recognized command word.
const statusToken = "STATUS"

// Parse decodes one received line: surrounding whitespace is trimmed and the token compared case-insensitively.
func Parse(line []byte) Command {
	token := strings.ToUpper(string(bytes.TrimSpace(line)))
	if token == statusToken {
		return Status
	}
	return Unknown
}

// String returns the lowercase metric label for c.
func (c Command) String() string {
	if c == Status {
		return "status"
	}
	return "unknown"
}
