/*
policy.go - Bonus policy strategy

PURPOSE:
  Isolates accrual math and deduction eligibility from the Card entity so
  alternate policies (tiered cards, promotions) can be substituted without
  touching balance mutation or persistence. The Card delegates its
  CalculateBonus and CanDeductBonus calls here.

STANDARD POLICY:
  - Accrual: 5% of the purchase amount
  - Deduction: permitted only while balance stays at or above 100 bonuses
    BEFORE the deduction, and the balance covers the requested amount

NOTE ON THE MINIMUM-BALANCE RULE:
  The rule is balance >= 100, not amount >= 100. A card holding 99.99
  bonuses cannot deduct anything, even 1 bonus. This mirrors the store's
  established program terms.

SEE ALSO:
  - card.go: Entity that consumes this policy
*/
package loyalty

import "github.com/shopspring/decimal"

// Program constants for the standard policy.
var (
	// DefaultBonusPercent is the accrual rate applied to purchase amounts.
	DefaultBonusPercent = decimal.NewFromInt(5)

	// MinBalanceForDeduction is the balance threshold below which no
	// deduction is permitted regardless of the requested amount.
	MinBalanceForDeduction = decimal.NewFromInt(100)
)

// CardNumberLength is the fixed length of a card number.
const CardNumberLength = 16

// BonusPolicy decides how purchases convert to bonuses and when a
// deduction is permitted. Implementations must be pure: no side effects
// on the card.
type BonusPolicy interface {
	// CalculateBonus returns the bonus accrued for a purchase amount.
	// The purchase amount has already been validated as positive.
	CalculateBonus(purchaseAmount decimal.Decimal) decimal.Decimal

	// CanDeduct reports whether a deduction of amount is permitted for
	// a card with the given balance and active state.
	CanDeduct(balance, amount decimal.Decimal, active bool) bool
}

// =============================================================================
// STANDARD POLICY
// =============================================================================

// StandardPolicy implements the store's default program terms: a fixed
// percentage accrual and a minimum-balance deduction rule.
type StandardPolicy struct {
	BonusPercent decimal.Decimal
	MinBalance   decimal.Decimal
}

// NewStandardPolicy returns the default 5% / minimum-100 policy.
func NewStandardPolicy() *StandardPolicy {
	return &StandardPolicy{
		BonusPercent: DefaultBonusPercent,
		MinBalance:   MinBalanceForDeduction,
	}
}

func (p *StandardPolicy) CalculateBonus(purchaseAmount decimal.Decimal) decimal.Decimal {
	return purchaseAmount.Mul(p.BonusPercent).Div(decimal.NewFromInt(100))
}

func (p *StandardPolicy) CanDeduct(balance, amount decimal.Decimal, active bool) bool {
	return active &&
		balance.GreaterThanOrEqual(amount) &&
		balance.GreaterThanOrEqual(p.MinBalance)
}

var _ BonusPolicy = (*StandardPolicy)(nil)
