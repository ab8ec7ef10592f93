package loyalty

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OperationKind distinguishes accruals from deductions.
type OperationKind string

const (
	Accrual   OperationKind = "accrual"
	Deduction OperationKind = "deduction"
)

// Operation is an immutable record of one accrual or deduction event.
// BalanceAfter snapshots the card's balance immediately after the
// operation so audits never need to recompute it. The card is referenced
// by number only; the history does not own cards.
type Operation struct {
	ID           string
	Kind         OperationKind
	CardNumber   string
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	Timestamp    time.Time
	Description  string
}

// IsZero reports whether the operation is an empty record.
func (op Operation) IsZero() bool {
	return op.Kind == "" && op.CardNumber == "" && op.Amount.IsZero()
}

// String renders the operation as a statement line:
// timestamp | kind | card | amount | balance after | description.
func (op Operation) String() string {
	return fmt.Sprintf("%s | %-9s | card %s | %10s | balance %10s | %s",
		op.Timestamp.Format("2006-01-02 15:04:05"),
		op.Kind,
		op.CardNumber,
		op.Amount.StringFixed(2),
		op.BalanceAfter.StringFixed(2),
		op.Description)
}
