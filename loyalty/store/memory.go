// Package store provides an in-memory CardStore for tests and
// development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/loyalty-engine/loyalty"
)

// =============================================================================
// MEMORY STORE - In-memory CardStore implementation (testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	cards map[string]loyalty.Card
}

func NewMemory() *Memory {
	return &Memory{cards: make(map[string]loyalty.Card)}
}

// Load returns independent copies of every card, ordered by number for
// deterministic listings.
func (m *Memory) Load(_ context.Context) ([]*loyalty.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	numbers := make([]string, 0, len(m.cards))
	for n := range m.cards {
		numbers = append(numbers, n)
	}
	sort.Strings(numbers)

	out := make([]*loyalty.Card, 0, len(numbers))
	for _, n := range numbers {
		c := m.cards[n]
		out = append(out, &c)
	}
	return out, nil
}

// Save upserts by card number.
func (m *Memory) Save(_ context.Context, card *loyalty.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[card.Number] = *card
	return nil
}

// SaveAll replaces the whole card set.
func (m *Memory) SaveAll(_ context.Context, cards []*loyalty.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards = make(map[string]loyalty.Card, len(cards))
	for _, c := range cards {
		m.cards[c.Number] = *c
	}
	return nil
}

func (m *Memory) FindByNumber(_ context.Context, number string) (*loyalty.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cards[number]
	if !ok {
		return nil, loyalty.ErrCardNotFound
	}
	return &c, nil
}

func (m *Memory) ActiveCardNumbers(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for n, c := range m.cards {
		if c.Active {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Close() error { return nil }

var _ loyalty.CardStore = (*Memory)(nil)
