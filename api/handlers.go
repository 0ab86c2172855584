/*
handlers.go - HTTP API handlers

PURPOSE:
  Exposes the inventory tooling service over REST. Two audiences:
  - the agent orchestrator, which lists tool definitions and dispatches
    calls by name (/api/tools/*)
  - typed clients (dashboards, cron alerts) hitting the inventory routes
    directly

ERROR HANDLING:
  Domain errors map onto status codes:
    400 validation        404 not found / not registered
    409 insufficient stock
    502 remote store unavailable
    500 everything else
  Tool dispatch is the exception: operation failures come back as 200
  with Result{ok:false}, because the orchestrator branches on the
  result, not the transport.

SEE ALSO:
  - dto.go: request/response data structures
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/registry"
	"github.com/warp/stock-engine/sheets"
	"github.com/warp/stock-engine/tools"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Tools      *tools.Dispatcher
	Registry   *registry.Registry
	Engine     *inventory.Engine
	Scanner    *inventory.Scanner
	Forecaster *inventory.Forecaster
	Ledger     *inventory.Ledger
}

// =============================================================================
// TOOL SURFACE
// =============================================================================

// ListTools returns the tool definitions for the orchestrator.
func (h *Handler) ListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Tools.Definitions())
}

// DispatchTool runs one named tool with the JSON body as arguments.
func (h *Handler) DispatchTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	args, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body", err)
		return
	}
	if len(args) == 0 {
		args = []byte("{}")
	}

	res, err := h.Tools.Dispatch(r.Context(), name, args)
	if err != nil {
		// The dispatcher folds every operation failure into the result;
		// only an unknown name comes back as an error.
		writeError(w, http.StatusNotFound, "unknown tool", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// REGISTRATIONS
// =============================================================================

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	b, err := h.Registry.Register(r.Context(),
		inventory.CallerID(req.CallerID), inventory.Channel(req.Channel), req.SheetID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBindingDTO(b))
}

func (h *Handler) GetRegistrations(w http.ResponseWriter, r *http.Request) {
	caller := inventory.CallerID(chi.URLParam(r, "caller"))
	bindings, err := h.Registry.Bindings(r.Context(), caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]BindingDTO, len(bindings))
	for i, b := range bindings {
		out[i] = toBindingDTO(b)
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// INVENTORY
// =============================================================================

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	caller := inventory.CallerID(chi.URLParam(r, "caller"))
	items, err := h.Scanner.List(r.Context(), caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTOs(items))
}

func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	caller := inventory.CallerID(chi.URLParam(r, "caller"))

	threshold := decimal.NewFromInt(10)
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		var err error
		if threshold, err = decimal.NewFromString(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid threshold", err)
			return
		}
	}

	items, err := h.Scanner.Scan(r.Context(), caller, threshold)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTOs(items))
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	caller := inventory.CallerID(chi.URLParam(r, "caller"))
	item, err := h.Engine.Lookup(r.Context(), caller, itemParam(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ItemDTO{Name: item.Name, Quantity: item.Quantity})
}

func (h *Handler) AdjustItem(w http.ResponseWriter, r *http.Request) {
	caller := inventory.CallerID(chi.URLParam(r, "caller"))

	var req AdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	adj, err := h.Engine.Adjust(r.Context(), caller, itemParam(r), req.Delta)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AdjustedDTO{ItemName: adj.ItemName, OldQty: adj.OldQty, NewQty: adj.NewQty})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	caller := inventory.CallerID(chi.URLParam(r, "caller"))
	sheet, err := h.Registry.Resolve(r.Context(), caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	entries, err := h.Ledger.History(r.Context(), sheet, itemParam(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerEntryDTOs(entries))
}

func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	caller := inventory.CallerID(chi.URLParam(r, "caller"))
	est, err := h.Forecaster.Forecast(r.Context(), caller, itemParam(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ForecastDTO{
		ItemName:    est.ItemName,
		CurrentQty:  est.CurrentQty,
		DailyRate:   est.DailyRate,
		DaysLeft:    est.DaysLeft,
		PredictedAt: est.PredictedAt,
		Samples:     est.Samples,
	})
}

// itemParam returns the decoded {item} path segment.
func itemParam(r *http.Request) string {
	raw := chi.URLParam(r, "item")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encoding response"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain failures to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, inventory.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "insufficient stock", err)
	case inventory.IsNotFound(err), errors.Is(err, sheets.ErrSheetNotFound):
		writeError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, inventory.ErrRemoteUnavailable):
		writeError(w, http.StatusBadGateway, "remote store unavailable", err)
	case inventory.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}
