/*
history.go - Append-only operation ledger

PURPOSE:
  OperationHistory is the in-memory ledger of everything that happened to
  the card set during the process lifetime. Reports are derived from it;
  the history itself is never persisted, only the statements built from
  it are written to files by the caller.

INVARIANTS:
  1. Append-only: operations are never mutated or removed, except by
     clearing the whole ledger
  2. Insertion order is preserved for ByCard/ByPeriod/ByType
  3. ByCardAndPeriod sorts by timestamp explicitly, since insertion
     order and timestamp order can diverge under clock skew

CONCURRENCY:
  Guarded by an RWMutex so the HTTP surface can read while the registry
  appends.

SEE ALSO:
  - operation.go: The record type
  - report.go: Statement assembly over query results
*/
package loyalty

import (
	"sort"
	"sync"
	"time"
)

// OperationHistory is an append-only in-memory ledger of Operations with
// query methods by card, period, and kind.
type OperationHistory struct {
	mu  sync.RWMutex
	ops []Operation
}

// NewOperationHistory returns an empty ledger.
func NewOperationHistory() *OperationHistory {
	return &OperationHistory{}
}

// Append records an operation, preserving insertion order. Rejects
// empty records with ErrNilOperation.
func (h *OperationHistory) Append(op Operation) error {
	if op.IsZero() {
		return ErrNilOperation
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = append(h.ops, op)
	return nil
}

// All returns every operation in insertion order.
func (h *OperationHistory) All() []Operation {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Operation(nil), h.ops...)
}

// ByCard returns all operations for a card, in insertion order.
func (h *OperationHistory) ByCard(cardNumber string) []Operation {
	return h.filter(func(op Operation) bool {
		return op.CardNumber == cardNumber
	})
}

// ByPeriod returns operations with start <= timestamp <= end, both ends
// inclusive.
func (h *OperationHistory) ByPeriod(start, end time.Time) []Operation {
	return h.filter(func(op Operation) bool {
		return inPeriod(op.Timestamp, start, end)
	})
}

// ByCardAndPeriod returns the intersection of ByCard and ByPeriod,
// sorted ascending by timestamp.
func (h *OperationHistory) ByCardAndPeriod(cardNumber string, start, end time.Time) []Operation {
	ops := h.filter(func(op Operation) bool {
		return op.CardNumber == cardNumber && inPeriod(op.Timestamp, start, end)
	})
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].Timestamp.Before(ops[j].Timestamp)
	})
	return ops
}

// ByType returns all operations of one kind, in insertion order.
func (h *OperationHistory) ByType(kind OperationKind) []Operation {
	return h.filter(func(op Operation) bool {
		return op.Kind == kind
	})
}

// Count returns the number of recorded operations.
func (h *OperationHistory) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.ops)
}

// Clear empties the ledger. Supports test reset.
func (h *OperationHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = nil
}

func (h *OperationHistory) filter(keep func(Operation) bool) []Operation {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []Operation
	for _, op := range h.ops {
		if keep(op) {
			out = append(out, op)
		}
	}
	return out
}

func inPeriod(ts, start, end time.Time) bool {
	return !ts.Before(start) && !ts.After(end)
}
