/*
fake.go - In-memory Backend for tests and credential-less dev

PURPOSE:
  A worksheet per sheet id, held in memory. Supports the two A1 range
  shapes the system actually uses (single cell, and column-pair ranges
  like "A2:B" / "A:B" / "A1:B1") and scripted failures so tests can
  exercise the retry and breaker paths.

SEE ALSO:
  - client.go: what wraps this in production-shaped failure handling
*/
package sheets

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// Fake is an in-memory Backend.
type Fake struct {
	mu     sync.RWMutex
	sheets map[string][][]string // sheet id -> rows (row 0 is sheet row 1)
	script []error               // errors to return before succeeding
	reads  int
	writes int
}

// NewFake creates an empty fake backend.
func NewFake() *Fake {
	return &Fake{sheets: make(map[string][][]string)}
}

// Seed replaces a sheet's rows. Row 0 becomes sheet row 1 (the header).
func (f *Fake) Seed(sheet string, rows [][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([][]string, len(rows))
	for i, r := range rows {
		cp[i] = append([]string(nil), r...)
	}
	f.sheets[sheet] = cp
}

// FailNext queues errors to be returned by upcoming calls, in order,
// before normal behavior resumes.
func (f *Fake) FailNext(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, errs...)
}

// Calls reports how many reads and writes reached the backend. Used by
// retry tests to count attempts.
func (f *Fake) Calls() (reads, writes int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.reads, f.writes
}

// Rows returns a copy of a sheet's current contents.
func (f *Fake) Rows(sheet string) [][]string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	rows := f.sheets[sheet]
	cp := make([][]string, len(rows))
	for i, r := range rows {
		cp[i] = append([]string(nil), r...)
	}
	return cp
}

// ReadRange implements Backend.
func (f *Fake) ReadRange(_ context.Context, sheet, a1Range string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if err := f.nextScripted(); err != nil {
		return nil, err
	}

	rows, ok := f.sheets[sheet]
	if !ok {
		return nil, &RemoteError{Code: http.StatusNotFound, Message: "no such sheet: " + sheet}
	}

	start, end := parseRowSpan(a1Range, len(rows))
	var out [][]string
	for r := start; r <= end && r <= len(rows); r++ {
		out = append(out, append([]string(nil), rows[r-1]...))
	}
	return out, nil
}

// WriteCell implements Backend.
func (f *Fake) WriteCell(_ context.Context, sheet, cell, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if err := f.nextScripted(); err != nil {
		return err
	}

	rows, ok := f.sheets[sheet]
	if !ok {
		return &RemoteError{Code: http.StatusNotFound, Message: "no such sheet: " + sheet}
	}

	col, row, ok := parseCell(cell)
	if !ok {
		return &RemoteError{Code: http.StatusBadRequest, Message: "bad cell ref: " + cell}
	}
	for len(rows) < row {
		rows = append(rows, nil)
	}
	line := rows[row-1]
	for len(line) <= col {
		line = append(line, "")
	}
	line[col] = value
	rows[row-1] = line
	f.sheets[sheet] = rows
	return nil
}

func (f *Fake) nextScripted() error {
	if len(f.script) == 0 {
		return nil
	}
	err := f.script[0]
	f.script = f.script[1:]
	return err
}

// parseRowSpan extracts the 1-indexed row span from ranges like "A2:B",
// "A:B", "A1:B1", or a single cell "B7". Open-ended spans run to total.
func parseRowSpan(a1Range string, total int) (start, end int) {
	start, end = 1, total
	parts := strings.SplitN(a1Range, ":", 2)
	if n, ok := rowOf(parts[0]); ok {
		start = n
	}
	if len(parts) == 2 {
		if n, ok := rowOf(parts[1]); ok {
			end = n
		}
	} else if n, ok := rowOf(parts[0]); ok {
		end = n // single cell
	}
	return start, end
}

func rowOf(ref string) (int, bool) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		i++
	}
	if i == len(ref) {
		return 0, false
	}
	n, err := strconv.Atoi(ref[i:])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func parseCell(ref string) (col, row int, ok bool) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, false
	}
	n, err := strconv.Atoi(ref[i:])
	if err != nil || n < 1 {
		return 0, 0, false
	}
	return col - 1, n, true
}
