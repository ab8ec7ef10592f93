/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  domain model from the external contract. Decimal amounts travel as
  two-decimal strings to avoid float drift in clients.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/loyalty-engine/loyalty"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// CardDTO represents a loyalty card in API responses.
type CardDTO struct {
	Number       string `json:"number"`
	ClientName   string `json:"client_name"`
	Phone        string `json:"phone"`
	Balance      string `json:"balance"`
	RegisteredAt string `json:"registered_at"`
	Active       bool   `json:"active"`
}

func toCardDTO(c *loyalty.Card) CardDTO {
	return CardDTO{
		Number:       c.Number,
		ClientName:   c.ClientName,
		Phone:        c.Phone,
		Balance:      c.Balance.StringFixed(2),
		RegisteredAt: c.RegisteredAt.Format("2006-01-02"),
		Active:       c.Active,
	}
}

// RegisterCardRequest creates a new card. An empty number requests a
// generated one.
type RegisterCardRequest struct {
	Number     string `json:"number,omitempty"`
	ClientName string `json:"client_name"`
	Phone      string `json:"phone"`
}

// PurchaseRequest accrues bonuses for a purchase.
type PurchaseRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

// DeductRequest deducts bonuses from a card.
type DeductRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

// OperationDTO represents one ledger entry in API responses.
type OperationDTO struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	CardNumber   string `json:"card_number"`
	Amount       string `json:"amount"`
	BalanceAfter string `json:"balance_after"`
	Timestamp    string `json:"timestamp"`
	Description  string `json:"description,omitempty"`
}

func toOperationDTO(op loyalty.Operation) OperationDTO {
	return OperationDTO{
		ID:           op.ID,
		Kind:         string(op.Kind),
		CardNumber:   op.CardNumber,
		Amount:       op.Amount.StringFixed(2),
		BalanceAfter: op.BalanceAfter.StringFixed(2),
		Timestamp:    op.Timestamp.Format(time.RFC3339),
		Description:  op.Description,
	}
}

func toOperationDTOs(ops []loyalty.Operation) []OperationDTO {
	dtos := make([]OperationDTO, len(ops))
	for i, op := range ops {
		dtos[i] = toOperationDTO(op)
	}
	return dtos
}

// StatementDTO wraps a rendered statement.
type StatementDTO struct {
	CardNumber string `json:"card_number"`
	From       string `json:"from"`
	To         string `json:"to"`
	Operations int    `json:"operations"`
	Text       string `json:"text"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
