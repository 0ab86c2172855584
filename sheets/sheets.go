/*
Package sheets is the adapter for the remote spreadsheet store.

PURPOSE:
  Everything that talks to the remote tabular store lives here: the raw
  Backend transport, transient-vs-permanent failure classification,
  retry with backoff, a circuit breaker, and the A1 addressing helpers.

LAYERS:
  Backend:  raw range read / cell write against one worksheet per sheet id
            (api.go for the real HTTP service, fake.go for tests/dev)
  Client:   Backend wrapped in retry + circuit breaker; this is what the
            rest of the system depends on

FAILURE CLASSIFICATION:
  Remote failures carry an HTTP-style status code. Rate limiting (429)
  and server faults (500/502/503/504) are transient and retried;
  everything else (403, 404, bad request) fails immediately.

ADDRESSING:
  Ranges use A1 notation: column letter + 1-indexed row ("B7"). Row 1 is
  a header row; data rows start at 2. Callers pass bare sheet ids or full
  spreadsheet URLs; ExtractSheetID normalizes either form.

SEE ALSO:
  - client.go: retry/breaker wrapping
  - retry.go: backoff policy
*/
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// =============================================================================
// BACKEND - Raw transport
// =============================================================================

// Backend performs raw reads and writes against the remote store.
// One worksheet per sheet id; cells are strings, exactly as the remote
// service presents them.
//
// Implementations: API (api.go), Fake (fake.go).
type Backend interface {
	// ReadRange returns the cell grid for an A1 range. Rows may be ragged:
	// trailing empty cells are omitted, like the remote service does.
	ReadRange(ctx context.Context, sheet, a1Range string) ([][]string, error)

	// WriteCell overwrites a single cell ("B7") with the given value.
	WriteCell(ctx context.Context, sheet, cell, value string) error
}

// =============================================================================
// REMOTE ERRORS
// =============================================================================

// ErrSheetNotFound is returned when the sheet id does not resolve to an
// accessible spreadsheet. Permanent; never retried.
var ErrSheetNotFound = errors.New("sheet not found")

// RemoteError is a failure reported by the remote service, tagged with an
// HTTP-style status code for retry classification.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote store error %d: %s", e.Code, e.Message)
}

func (e *RemoteError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrSheetNotFound
	}
	return nil
}

// Transient reports whether a retry could plausibly succeed.
func (e *RemoteError) Transient() bool {
	switch e.Code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsTransient classifies an error as retry-eligible. Context cancellation
// and permission/not-found failures are never transient.
func IsTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Transient()
	}
	return false
}

// =============================================================================
// ADDRESSING
// =============================================================================

// ExtractSheetID accepts either a bare sheet id or a full spreadsheet URL
// (".../spreadsheets/d/<id>/edit#gid=0") and returns the bare id.
func ExtractSheetID(s string) string {
	s = strings.TrimSpace(s)
	const marker = "spreadsheets/d/"
	i := strings.Index(s, marker)
	if i < 0 {
		return s
	}
	rest := s[i+len(marker):]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

// Cell builds an A1 cell reference from a column letter and 1-indexed row.
func Cell(column string, row int) string {
	return fmt.Sprintf("%s%d", column, row)
}
