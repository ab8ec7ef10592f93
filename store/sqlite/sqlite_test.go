package sqlite_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loyalty-engine/loyalty"
	"github.com/warp/loyalty-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testCard(t *testing.T, number string) *loyalty.Card {
	t.Helper()
	card, err := loyalty.NewCard(number, "Anna Petrova", "+375445123443")
	require.NoError(t, err)
	return card
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// =============================================================================
// CONTRACT PARITY WITH THE DOCUMENT STORE
// =============================================================================

func TestLoad_EmptyDatabase(t *testing.T) {
	s := newTestStore(t)

	cards, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	card := testCard(t, "1234567890123456")
	require.NoError(t, card.AddBonus(dec("150.755"))) // persists as 150.76
	card.Deactivate()
	require.NoError(t, s.Save(ctx, card))

	got, err := s.FindByNumber(ctx, "1234567890123456")
	require.NoError(t, err)

	assert.Equal(t, card.ClientName, got.ClientName)
	assert.Equal(t, card.Phone, got.Phone)
	assert.True(t, got.Balance.Equal(dec("150.76")))
	assert.False(t, got.Active)
	assert.Equal(t,
		card.RegisteredAt.Format("2006-01-02"),
		got.RegisteredAt.Format("2006-01-02"))
}

func TestSave_UpsertByNumber(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, testCard(t, "1234567890123456")))

	second, err := loyalty.NewCard("1234567890123456", "Boris Ivanov", "+375291112233")
	require.NoError(t, err)
	require.NoError(t, second.AddBonus(dec("42.00")))
	require.NoError(t, s.Save(ctx, second))

	cards, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "Boris Ivanov", cards[0].ClientName)
	assert.True(t, cards[0].Balance.Equal(dec("42.00")))
}

func TestSaveAll_ReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx, testCard(t, "1111222233334444")))
	require.NoError(t, s.Save(ctx, testCard(t, "5555666677778888")))

	require.NoError(t, s.SaveAll(ctx, []*loyalty.Card{testCard(t, "9999000011112222")}))

	cards, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "9999000011112222", cards[0].Number)
}

func TestFindByNumber_Missing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.FindByNumber(context.Background(), "0000000000000000")
	assert.ErrorIs(t, err, loyalty.ErrCardNotFound)
}

func TestActiveCardNumbers_FiltersInactive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	active := testCard(t, "1111222233334444")
	inactive := testCard(t, "5555666677778888")
	inactive.Deactivate()

	require.NoError(t, s.Save(ctx, active))
	require.NoError(t, s.Save(ctx, inactive))

	numbers, err := s.ActiveCardNumbers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1111222233334444"}, numbers)
}

func TestRegistry_WorksOverSQLite(t *testing.T) {
	// The registry must not care which backing it runs on.
	ctx := context.Background()
	s := newTestStore(t)
	reg := loyalty.NewRegistry(s, loyalty.NewOperationHistory(), nil)

	_, err := reg.RegisterCard(ctx, "1234567890123456", "Anna Petrova", "+375445123443")
	require.NoError(t, err)

	op, err := reg.ProcessPurchase(ctx, "1234567890123456", dec("1000.00"), "groceries")
	require.NoError(t, err)
	assert.True(t, op.BalanceAfter.Equal(dec("50.00")))

	balance, err := reg.Balance(ctx, "1234567890123456")
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("50.00")))
}
