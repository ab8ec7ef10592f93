/*
card.go - Loyalty card entity

PURPOSE:
  Card is the one mutable entity in the system: identity plus balance and
  active state. It protects its own invariants on construction and on
  every mutation.

INVARIANTS:
  1. Number is exactly 16 digits and immutable once validated
  2. Balance is never negative
  3. Inactive cards accrue nothing and cannot be deducted from
  4. RegisteredAt is set at creation and never mutated

MUTATION DISCIPLINE:
  Bonus computation (CalculateBonus) and eligibility (CanDeductBonus) are
  pure and delegated to the BonusPolicy; mutation happens only in
  AddBonus and DeductBonus, which re-check their preconditions. A Card
  returned by a CardStore is an independent copy: mutating it does not
  persist anything until Save is called.

SEE ALSO:
  - policy.go: Pluggable accrual/eligibility rules
  - registry.go: Orchestrates mutation + history + persistence
*/
package loyalty

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Card represents one loyalty card: identity, balance, and active state.
type Card struct {
	Number       string
	ClientName   string
	Phone        string
	Balance      decimal.Decimal
	RegisteredAt time.Time
	Active       bool

	policy BonusPolicy
}

// NewCard creates a freshly registered card: zero balance, active, with
// the standard bonus policy. The card number format is re-validated here
// even though callers pre-validate; the entity stays self-protecting.
// ClientName and Phone are display attributes validated by the caller.
func NewCard(number, clientName, phone string) (*Card, error) {
	if !ValidCardNumber(number) {
		return nil, ErrInvalidCardNumber
	}
	return &Card{
		Number:       number,
		ClientName:   clientName,
		Phone:        phone,
		Balance:      decimal.Zero,
		RegisteredAt: time.Now(),
		Active:       true,
		policy:       NewStandardPolicy(),
	}, nil
}

// WithPolicy substitutes the card's bonus policy. Used for tiered or
// promotional programs; the zero policy falls back to the standard one.
func (c *Card) WithPolicy(p BonusPolicy) *Card {
	c.policy = p
	return c
}

// Policy returns the card's bonus policy, defaulting to standard.
func (c *Card) Policy() BonusPolicy {
	if c.policy == nil {
		c.policy = NewStandardPolicy()
	}
	return c.policy
}

// CalculateBonus computes the bonus for a purchase without mutating the
// card. Returns ErrNonPositiveAmount for purchaseAmount <= 0 and zero
// for an inactive card (not an error).
func (c *Card) CalculateBonus(purchaseAmount decimal.Decimal) (decimal.Decimal, error) {
	if !purchaseAmount.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}
	if !c.Active {
		return decimal.Zero, nil
	}
	return c.Policy().CalculateBonus(purchaseAmount), nil
}

// CanDeductBonus reports whether a deduction of amount is permitted.
func (c *Card) CanDeductBonus(amount decimal.Decimal) bool {
	return c.Policy().CanDeduct(c.Balance, amount, c.Active)
}

// AddBonus increases the balance. Fails on non-positive amounts with the
// balance unchanged.
func (c *Card) AddBonus(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	return c.setBalance(c.Balance.Add(amount), amount)
}

// DeductBonus decreases the balance if the policy permits it. Returns
// false with no mutation otherwise.
func (c *Card) DeductBonus(amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}
	if !c.CanDeductBonus(amount) {
		return false
	}
	if err := c.setBalance(c.Balance.Sub(amount), amount.Neg()); err != nil {
		return false
	}
	return true
}

// setBalance is the single write path for the balance. The negative
// check is defensive: CanDeductBonus already guarantees it for
// deductions, but an invariant breach must be reported, never clamped.
func (c *Card) setBalance(next, delta decimal.Decimal) error {
	if next.IsNegative() {
		return &InvariantError{CardNumber: c.Number, Balance: c.Balance, Delta: delta}
	}
	c.Balance = next
	return nil
}

// Deactivate marks the card inactive. Cards are never deleted.
func (c *Card) Deactivate() { c.Active = false }

// Activate re-enables the card.
func (c *Card) Activate() { c.Active = true }

// Describe returns a human-readable snapshot of the card.
func (c *Card) Describe() string {
	status := "active"
	if !c.Active {
		status = "inactive"
	}
	return fmt.Sprintf("Card #%s\nHolder: %s\nPhone: %s\nBalance: %s bonuses\nRegistered: %s\nStatus: %s",
		c.Number, c.ClientName, c.Phone,
		c.Balance.StringFixed(2),
		c.RegisteredAt.Format("2006-01-02"),
		status)
}
