package spendgate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

const (
	defaultDialTimeout = 5 * time.Second
	defaultTimeout     = 30 * time.Second
)

// Client queries a spendgate breaker. Each call opens its own connection; a Client is safe for concurrent use.
type Client struct {
	addr    string
	dialer  net.Dialer
	timeout time.Duration
	obs     *observer
}

// New creates a Client for the breaker at addr (host:port). No connection is made until a query.
func New(addr string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		dialTimeout: defaultDialTimeout,
		timeout:     defaultTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		addr:    addr,
		dialer:  net.Dialer{Timeout: cfg.dialTimeout},
		timeout: cfg.timeout,
		obs:     obs,
	}, nil
}

// Status reports whether the breaker observed cost today or yesterday (UTC).
func (c *Client) Status(ctx context.Context) (ok bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("status", start, err) }()

	reply, err := c.exchange(ctx, "STATUS")
	if err != nil {
		return false, err
	}

	switch reply {
	case "TRUE":
		return true, nil
	case "FALSE":
		return false, nil
	case "ERR Unknown Command":
		return false, ErrUnknownCommand
	default:
		return false, fmt.Errorf("%w: %q", ErrUnexpectedReply, reply)
	}
}

// Send issues a raw command and returns the reply line without its newline.
// A rejected command returns the reply together with ErrUnknownCommand.
func (c *Client) Send(ctx context.Context, command string) (reply string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("send", start, err) }()

	reply, err = c.exchange(ctx, command)
	if err != nil {
		return "", err
	}
	if reply == "ERR Unknown Command" {
		return reply, ErrUnknownCommand
	}
	return reply, nil
}

// exchange runs one connection: write the command line, read one reply line.
func (c *Client) exchange(ctx context.Context, command string) (string, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return "", fmt.Errorf("spendgate: dial %s: %w", c.addr, err)
	}
	defer func() { _ = conn.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	if _, err := io.WriteString(conn, command+"\n"); err != nil {
		return "", c.wrapIOError(ctx, "write", err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: connection closed after %q", ErrUnexpectedReply, line)
		}
		return "", c.wrapIOError(ctx, "read", err)
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// wrapIOError prefers the context error when the context caused the failure.
func (c *Client) wrapIOError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("spendgate: %s: %w", op, ctxErr)
	}
	return fmt.Errorf("spendgate: %s: %w", op, err)
}
