/*
registry.go - Composing layer for the loyalty program

PURPOSE:
  Registry owns the program-wide state that the original design kept in
  ambient globals: creation/issuance counters and the notification
  hooks. Everything is explicit here - the store, the history, the
  policy, and the callbacks are injected, never reached through package
  state.

OPERATION FLOW:
  RegisterCard / ProcessPurchase / DeductBonuses all follow the same
  shape: look up, mutate the entity, persist via the CardStore, record
  the Operation, then raise hooks. Hooks fire exactly once per
  successful operation and only after mutation and persistence, never
  before.

SERIALIZATION:
  Every mutating flow is a read-modify-write against the store, so the
  registry holds a mutex per card number for the whole window. Without
  it, two concurrent operations on the same card both read the old
  balance and the later Save erases the earlier one. Operations on
  distinct cards run in parallel.

CONSISTENCY:
  If Save fails after the in-memory mutation succeeded, the in-memory
  card and the durable file are out of sync. The error is surfaced and
  the caller decides whether to retry the save; there is no two-phase
  commit across memory and disk.

SEE ALSO:
  - store.go: CardStore contract
  - history.go: Operation ledger
*/
package loyalty

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OperationHook observes a completed bonus operation.
type OperationHook func(kind OperationKind, cardNumber string, amount decimal.Decimal)

// RegisteredHook observes a completed card registration.
type RegisteredHook func(card *Card)

// Registry orchestrates card registration, purchases, deductions, and
// statements over an injected CardStore and OperationHistory.
type Registry struct {
	store   CardStore
	history *OperationHistory
	policy  BonusPolicy
	log     *zap.Logger

	mu                 sync.Mutex
	totalCardsCreated  int
	totalBonusesIssued decimal.Decimal

	locksMu   sync.Mutex
	cardLocks map[string]*sync.Mutex

	operationHooks  []OperationHook
	registeredHooks []RegisteredHook
}

// NewRegistry creates a registry with the standard policy. A nil logger
// is replaced with a no-op logger.
func NewRegistry(store CardStore, history *OperationHistory, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		store:     store,
		history:   history,
		policy:    NewStandardPolicy(),
		log:       log,
		cardLocks: make(map[string]*sync.Mutex),
	}
}

// WithPolicy substitutes the policy applied to newly registered cards.
func (r *Registry) WithPolicy(p BonusPolicy) *Registry {
	r.policy = p
	return r
}

// OnOperation registers a hook raised once per successful accrual or
// deduction, after mutation and persistence.
func (r *Registry) OnOperation(h OperationHook) {
	r.operationHooks = append(r.operationHooks, h)
}

// OnCardRegistered registers a hook raised once per successful
// registration, after the card is persisted.
func (r *Registry) OnCardRegistered(h RegisteredHook) {
	r.registeredHooks = append(r.registeredHooks, h)
}

// History exposes the operation ledger for reporting and queries.
func (r *Registry) History() *OperationHistory { return r.history }

// TotalCardsCreated returns how many cards this registry has registered.
func (r *Registry) TotalCardsCreated() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalCardsCreated
}

// TotalBonusesIssued returns the sum of all accrued bonuses.
func (r *Registry) TotalBonusesIssued() decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalBonusesIssued
}

// =============================================================================
// OPERATIONS
// =============================================================================

// lockCard acquires the mutex serializing read-modify-write flows for
// one card number and returns its unlock.
func (r *Registry) lockCard(number string) func() {
	r.locksMu.Lock()
	l, ok := r.cardLocks[number]
	if !ok {
		l = &sync.Mutex{}
		r.cardLocks[number] = l
	}
	r.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

// RegisterCard validates uniqueness, creates the card, persists it, and
// raises the registration hooks.
func (r *Registry) RegisterCard(ctx context.Context, number, clientName, phone string) (*Card, error) {
	defer r.lockCard(number)()

	if _, err := r.store.FindByNumber(ctx, number); err == nil {
		return nil, ErrCardExists
	} else if !IsNotFound(err) {
		return nil, err
	}

	card, err := NewCard(number, clientName, phone)
	if err != nil {
		return nil, err
	}
	card.WithPolicy(r.policy)

	if err := r.store.Save(ctx, card); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.totalCardsCreated++
	r.mu.Unlock()

	for _, h := range r.registeredHooks {
		h(card)
	}
	return card, nil
}

// ProcessPurchase accrues the policy bonus for a purchase, persists the
// card, and records one Accrual operation. An inactive card accrues
// zero: no mutation, no operation, no hook, no error. The caller
// detects that outcome with Operation.IsZero.
func (r *Registry) ProcessPurchase(ctx context.Context, number string, purchaseAmount decimal.Decimal, description string) (Operation, error) {
	defer r.lockCard(number)()

	card, err := r.store.FindByNumber(ctx, number)
	if err != nil {
		return Operation{}, err
	}

	bonus, err := card.CalculateBonus(purchaseAmount)
	if err != nil {
		return Operation{}, err
	}
	if bonus.IsZero() {
		r.log.Info("no bonus accrued for inactive card", zap.String("card", number))
		return Operation{}, nil
	}

	if err := card.AddBonus(bonus); err != nil {
		return Operation{}, err
	}
	if err := r.store.Save(ctx, card); err != nil {
		return Operation{}, err
	}

	op := r.record(Accrual, card, bonus, description)

	r.mu.Lock()
	r.totalBonusesIssued = r.totalBonusesIssued.Add(bonus)
	r.mu.Unlock()

	r.raise(op)
	return op, nil
}

// DeductBonuses deducts bonuses from a card, persists it, and records
// one Deduction operation. A refused deduction leaves the card
// unchanged and returns ErrDeductionRefused.
func (r *Registry) DeductBonuses(ctx context.Context, number string, amount decimal.Decimal, description string) (Operation, error) {
	if !amount.IsPositive() {
		return Operation{}, ErrNonPositiveAmount
	}

	defer r.lockCard(number)()

	card, err := r.store.FindByNumber(ctx, number)
	if err != nil {
		return Operation{}, err
	}

	if !card.DeductBonus(amount) {
		return Operation{}, ErrDeductionRefused
	}
	if err := r.store.Save(ctx, card); err != nil {
		return Operation{}, err
	}

	op := r.record(Deduction, card, amount, description)
	r.raise(op)
	return op, nil
}

// Statement builds the textual statement for a card over [from, to] and
// returns the operations it was built from, so callers report a count
// consistent with the rendered text. Returns ErrNoOperations when the
// period is empty; the caller decides whether that warrants writing a
// file.
func (r *Registry) Statement(ctx context.Context, number string, from, to time.Time) (string, []Operation, error) {
	card, err := r.store.FindByNumber(ctx, number)
	if err != nil {
		return "", nil, err
	}
	ops := r.history.ByCardAndPeriod(number, from, to)
	if len(ops) == 0 {
		return "", nil, ErrNoOperations
	}
	return BuildStatement(card, from, to, ops), ops, nil
}

// Balance returns the current balance of a card.
func (r *Registry) Balance(ctx context.Context, number string) (decimal.Decimal, error) {
	card, err := r.store.FindByNumber(ctx, number)
	if err != nil {
		return decimal.Zero, err
	}
	return card.Balance, nil
}

// Card returns the persisted card for a number.
func (r *Registry) Card(ctx context.Context, number string) (*Card, error) {
	return r.store.FindByNumber(ctx, number)
}

// Cards returns the full card set.
func (r *Registry) Cards(ctx context.Context) ([]*Card, error) {
	return r.store.Load(ctx)
}

// Deactivate marks a card inactive and persists it. No operation is
// recorded: deactivation is a state change, not a bonus movement.
func (r *Registry) Deactivate(ctx context.Context, number string) error {
	defer r.lockCard(number)()

	card, err := r.store.FindByNumber(ctx, number)
	if err != nil {
		return err
	}
	card.Deactivate()
	return r.store.Save(ctx, card)
}

// record appends one operation to the history with the card's
// post-mutation balance.
func (r *Registry) record(kind OperationKind, card *Card, amount decimal.Decimal, description string) Operation {
	op := Operation{
		ID:           uuid.NewString(),
		Kind:         kind,
		CardNumber:   card.Number,
		Amount:       amount,
		BalanceAfter: card.Balance,
		Timestamp:    time.Now(),
		Description:  description,
	}
	if err := r.history.Append(op); err != nil {
		// Unreachable for records built here; surfaced in logs anyway.
		r.log.Error("failed to append operation", zap.Error(err))
	}
	return op
}

func (r *Registry) raise(op Operation) {
	for _, h := range r.operationHooks {
		h(op.Kind, op.CardNumber, op.Amount)
	}
}
