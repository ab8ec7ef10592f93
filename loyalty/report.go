package loyalty

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BuildStatement assembles the textual statement for a card over a set
// of operations: header, card snapshot, one line per operation, and
// trailing totals. Deterministic given its inputs; no operations is a
// caller-visible empty result, not an error, so the caller decides
// whether to write a file.
func BuildStatement(card *Card, from, to time.Time, ops []Operation) string {
	var b strings.Builder

	b.WriteString("=== LOYALTY CARD STATEMENT ===\n\n")
	b.WriteString(card.Describe())
	b.WriteString(fmt.Sprintf("\n\nPeriod: %s - %s\n\n",
		from.Format("2006-01-02"), to.Format("2006-01-02")))
	b.WriteString("=== OPERATIONS ===\n\n")

	accrued := decimal.Zero
	deducted := decimal.Zero
	for _, op := range ops {
		b.WriteString(op.String())
		b.WriteByte('\n')
		switch op.Kind {
		case Accrual:
			accrued = accrued.Add(op.Amount)
		case Deduction:
			deducted = deducted.Add(op.Amount)
		}
	}

	b.WriteString("\n=== TOTALS ===\n")
	b.WriteString(fmt.Sprintf("Operations: %d\n", len(ops)))
	b.WriteString(fmt.Sprintf("Total accrued: %s bonuses\n", accrued.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Total deducted: %s bonuses\n", deducted.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Current balance: %s bonuses\n", card.Balance.StringFixed(2)))

	return b.String()
}
