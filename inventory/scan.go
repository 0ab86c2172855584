/*
scan.go - Threshold scanner and full inventory listing

PURPOSE:
  Bulk-reads a caller's sheet and filters items at or below a supplied
  quantity. Also provides the full listing used for report generation.

ROW TOLERANCE:
  Sheets are edited by humans. A row with a missing name or an
  unparseable quantity is skipped with a log line, never aborts the
  scan. An empty result is a valid success ("nothing is low"), distinct
  from a read failure.

DEFAULT SHEET:
  A scanner may be configured with a fallback sheet id used when the
  caller has no binding. This mirrors the shared team sheet deployments
  where threshold alerts run without per-user registration.
*/
package inventory

import (
	"context"
	"errors"
	"log"

	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/sheets"
)

// Scanner bulk-reads inventories.
type Scanner struct {
	resolver     Resolver
	sheets       *sheets.Client
	defaultSheet SheetID // optional fallback for unregistered callers
	logger       *log.Logger
}

// NewScanner creates a scanner. defaultSheet may be empty, in which case
// unregistered callers get ErrNotRegistered.
func NewScanner(resolver Resolver, client *sheets.Client, defaultSheet SheetID) *Scanner {
	return &Scanner{
		resolver:     resolver,
		sheets:       client,
		defaultSheet: defaultSheet,
		logger:       log.Default(),
	}
}

// Scan returns items with quantity at or below the threshold, in sheet
// order. An empty slice means nothing is at or below the threshold.
func (s *Scanner) Scan(ctx context.Context, caller CallerID, threshold decimal.Decimal) ([]Item, error) {
	items, err := s.List(ctx, caller)
	if err != nil {
		return nil, err
	}
	low := []Item{}
	for _, it := range items {
		if it.Quantity.LessThanOrEqual(threshold) {
			low = append(low, it)
		}
	}
	return low, nil
}

// List returns every parseable item row on the caller's sheet.
func (s *Scanner) List(ctx context.Context, caller CallerID) ([]Item, error) {
	sheet, err := s.resolve(ctx, caller)
	if err != nil {
		return nil, err
	}

	rows, err := s.sheets.ReadRange(ctx, string(sheet), itemRange)
	if err != nil {
		return nil, wrapRemote("scan", err)
	}

	items := []Item{}
	for i, row := range rows {
		rowNum := i + 2
		if len(row) == 0 || row[0] == "" {
			continue
		}
		cell := ""
		if len(row) > 1 {
			cell = row[1]
		}
		qty, err := ParseQuantity(cell)
		if err != nil {
			s.logger.Printf("scan: sheet %s row %d: skipping unparseable quantity %q", sheet, rowNum, cell)
			continue
		}
		items = append(items, Item{Name: row[0], Quantity: qty, Row: rowNum})
	}
	return items, nil
}

func (s *Scanner) resolve(ctx context.Context, caller CallerID) (SheetID, error) {
	sheet, err := s.resolver.Resolve(ctx, caller)
	if errors.Is(err, ErrNotRegistered) && s.defaultSheet != "" {
		return s.defaultSheet, nil
	}
	return sheet, err
}
