// dto.go - Request/response shapes for the HTTP API.
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/inventory"
)

// RegisterRequest binds a caller to a sheet.
type RegisterRequest struct {
	CallerID string `json:"caller_id"`
	Channel  string `json:"channel"`
	SheetID  string `json:"sheet_id"`
}

// BindingDTO is a stored tenant binding.
type BindingDTO struct {
	CallerID  string    `json:"caller_id"`
	Channel   string    `json:"channel"`
	SheetID   string    `json:"sheet_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toBindingDTO(b inventory.Binding) BindingDTO {
	return BindingDTO{
		CallerID:  string(b.CallerID),
		Channel:   string(b.Channel),
		SheetID:   string(b.SheetID),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// ItemDTO is one inventory row.
type ItemDTO struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
}

func toItemDTOs(items []inventory.Item) []ItemDTO {
	out := make([]ItemDTO, len(items))
	for i, it := range items {
		out[i] = ItemDTO{Name: it.Name, Quantity: it.Quantity}
	}
	return out
}

// AdjustRequest applies a signed delta to an item.
type AdjustRequest struct {
	Delta decimal.Decimal `json:"delta"`
}

// AdjustedDTO reports a successful mutation.
type AdjustedDTO struct {
	ItemName string          `json:"item_name"`
	OldQty   decimal.Decimal `json:"old_qty"`
	NewQty   decimal.Decimal `json:"new_qty"`
}

// LedgerEntryDTO is one history record.
type LedgerEntryDTO struct {
	ID        string           `json:"id"`
	CallerID  string           `json:"caller_id,omitempty"`
	ItemName  string           `json:"item_name"`
	Delta     decimal.Decimal  `json:"delta_qty"`
	Snapshot  *decimal.Decimal `json:"snapshot_qty,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func toLedgerEntryDTOs(entries []inventory.LedgerEntry) []LedgerEntryDTO {
	out := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = LedgerEntryDTO{
			ID:        e.ID,
			CallerID:  string(e.CallerID),
			ItemName:  e.ItemName,
			Delta:     e.Delta,
			Snapshot:  e.Snapshot,
			CreatedAt: e.CreatedAt,
		}
	}
	return out
}

// ForecastDTO is a depletion estimate.
type ForecastDTO struct {
	ItemName    string          `json:"item_name"`
	CurrentQty  decimal.Decimal `json:"current_qty"`
	DailyRate   float64         `json:"daily_rate"`
	DaysLeft    float64         `json:"days_left"`
	PredictedAt time.Time       `json:"predicted_at"`
	Samples     int             `json:"samples"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
