/*
client.go - The remote store adapter used by the rest of the system

PURPOSE:
  Client wraps a Backend with the retry policy and a circuit breaker.
  Domain code depends on Client, never on a Backend directly, so the
  failure handling lives in exactly one place.

FAILURE HANDLING:
  Per attempt: breaker -> backend call.
  Around attempts: retry loop (transient failures only).
  A tripped breaker fails calls fast instead of burning full retry
  budgets against a flapping remote. Only transient faults feed the
  breaker; permanent rejections never open it.

NO PARTIAL-RANGE ATOMICITY:
  WriteCell writes one cell. Callers must treat a failed write as
  not-committed; there is no multi-cell transaction.

SEE ALSO:
  - retry.go, sheets.go
*/
package sheets

import (
	"context"
	"log"
	"time"

	"github.com/sony/gobreaker"
)

// Client is the remote store adapter. Construct once and pass by
// reference; it is safe for concurrent use.
type Client struct {
	backend Backend
	retry   RetryPolicy
	breaker *gobreaker.CircuitBreaker
	logger  *log.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithLogger overrides the default logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient wraps a backend with retry and circuit breaking.
func NewClient(backend Backend, opts ...Option) *Client {
	c := &Client{
		backend: backend,
		retry:   DefaultRetryPolicy(),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "sheets",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Only transient faults count against the breaker. Permanent
		// rejections (404, 403, bad request) are the caller's problem;
		// a caller probing bad sheet ids must not cut off every tenant.
		IsSuccessful: func(err error) bool {
			return err == nil || !IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Printf("sheets: circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return c
}

// ReadRange reads an A1 range from a sheet. Accepts bare ids or full
// spreadsheet URLs.
func (c *Client) ReadRange(ctx context.Context, sheet, a1Range string) ([][]string, error) {
	id := ExtractSheetID(sheet)
	var rows [][]string
	err := c.retry.do(ctx, func() error {
		res, err := c.breaker.Execute(func() (interface{}, error) {
			return c.backend.ReadRange(ctx, id, a1Range)
		})
		if err != nil {
			c.logger.Printf("sheets: read %s!%s failed: %v", id, a1Range, err)
			return err
		}
		rows = res.([][]string)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// WriteCell overwrites a single cell on a sheet.
func (c *Client) WriteCell(ctx context.Context, sheet, cell, value string) error {
	id := ExtractSheetID(sheet)
	return c.retry.do(ctx, func() error {
		_, err := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.backend.WriteCell(ctx, id, cell, value)
		})
		if err != nil {
			c.logger.Printf("sheets: write %s!%s failed: %v", id, cell, err)
		}
		return err
	})
}

// Probe performs a cheap read to confirm a sheet is accessible. Used by
// registration before a binding is committed.
func (c *Client) Probe(ctx context.Context, sheet string) error {
	_, err := c.ReadRange(ctx, sheet, "A1:B1")
	return err
}
