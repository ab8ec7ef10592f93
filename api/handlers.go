/*
handlers.go - HTTP handlers for the loyalty program

PURPOSE:
  Exposes the loyalty core via REST. Handles HTTP request/response and
  JSON serialization, delegating all domain decisions to the Registry.

ENDPOINTS:
  POST   /api/cards                      Register a card
  GET    /api/cards                      List all cards
  GET    /api/cards/{number}             Card details
  POST   /api/cards/{number}/purchase    Accrue bonuses for a purchase
  POST   /api/cards/{number}/deduct      Deduct bonuses
  POST   /api/cards/{number}/deactivate  Deactivate a card
  GET    /api/cards/{number}/operations  Operation history for a card
  GET    /api/cards/{number}/statement   Statement over ?from=&to=

ERROR HANDLING:
  Domain errors map to HTTP status via the loyalty error helpers:
  - 400: validation (bad number, non-positive amount, bad dates)
  - 404: card not found
  - 409: duplicate card number
  - 422: deduction refused by the program rules
  - 500: storage failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/loyalty-engine/loyalty"
)

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	Registry *loyalty.Registry
}

// NewHandler creates a handler over the given registry.
func NewHandler(registry *loyalty.Registry) *Handler {
	return &Handler{Registry: registry}
}

// =============================================================================
// CARD HANDLERS
// =============================================================================

// RegisterCard registers a new card. Generates a number when the
// request leaves it empty.
func (h *Handler) RegisterCard(w http.ResponseWriter, r *http.Request) {
	var req RegisterCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if !loyalty.ValidClientName(req.ClientName) {
		writeError(w, http.StatusBadRequest, "Invalid client name", nil)
		return
	}
	phone := loyalty.FormatPhone(req.Phone)
	if !loyalty.ValidPhone(phone) {
		writeError(w, http.StatusBadRequest, "Invalid phone number (expect + and 12 digits)", nil)
		return
	}

	number := req.Number
	if number == "" {
		number = loyalty.GenerateCardNumber()
	}

	card, err := h.Registry.RegisterCard(r.Context(), number, req.ClientName, phone)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCardDTO(card))
}

// ListCards returns all cards.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.Registry.Cards(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]CardDTO, len(cards))
	for i, c := range cards {
		dtos[i] = toCardDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCard returns a single card.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.Registry.Card(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardDTO(card))
}

// DeactivateCard marks a card inactive.
func (h *Handler) DeactivateCard(w http.ResponseWriter, r *http.Request) {
	if err := h.Registry.Deactivate(r.Context(), chi.URLParam(r, "number")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// OPERATION HANDLERS
// =============================================================================

// Purchase accrues bonuses for a purchase amount.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	op, err := h.Registry.ProcessPurchase(r.Context(), chi.URLParam(r, "number"), amount, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if op.IsZero() {
		// Inactive card: nothing accrued, nothing recorded.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, toOperationDTO(op))
}

// Deduct deducts bonuses from a card.
func (h *Handler) Deduct(w http.ResponseWriter, r *http.Request) {
	var req DeductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	op, err := h.Registry.DeductBonuses(r.Context(), chi.URLParam(r, "number"), amount, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOperationDTO(op))
}

// ListOperations returns the operation history for a card, optionally
// bounded by ?from=&to= (dates, inclusive).
func (h *Handler) ListOperations(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	// Ensure the card exists so a typo is a 404, not an empty list.
	if _, err := h.Registry.Card(r.Context(), number); err != nil {
		writeDomainError(w, err)
		return
	}

	history := h.Registry.History()
	fromStr, toStr := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if fromStr == "" && toStr == "" {
		writeJSON(w, http.StatusOK, toOperationDTOs(history.ByCard(number)))
		return
	}

	from, to, err := parsePeriod(fromStr, toStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period (use YYYY-MM-DD)", err)
		return
	}
	writeJSON(w, http.StatusOK, toOperationDTOs(history.ByCardAndPeriod(number, from, to)))
}

// GetStatement renders the textual statement for a card over a period.
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	from, to, err := parsePeriod(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period (use YYYY-MM-DD)", err)
		return
	}

	text, ops, err := h.Registry.Statement(r.Context(), number, from, to)
	if errors.Is(err, loyalty.ErrNoOperations) {
		writeJSON(w, http.StatusOK, StatementDTO{
			CardNumber: number,
			From:       from.Format("2006-01-02"),
			To:         to.Format("2006-01-02"),
			Operations: 0,
		})
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatementDTO{
		CardNumber: number,
		From:       from.Format("2006-01-02"),
		To:         to.Format("2006-01-02"),
		Operations: len(ops),
		Text:       text,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// parsePeriod parses inclusive date bounds; the end bound extends to
// the end of its day so same-day operations are included.
func parsePeriod(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to.Add(24*time.Hour - time.Nanosecond), nil
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case loyalty.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case loyalty.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Card not found", err)
	case loyalty.IsConflict(err):
		writeError(w, http.StatusConflict, "Card number already registered", err)
	case errors.Is(err, loyalty.ErrDeductionRefused):
		writeError(w, http.StatusUnprocessableEntity, "Deduction refused by program rules", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
