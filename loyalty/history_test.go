package loyalty_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loyalty-engine/loyalty"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func opAt(kind loyalty.OperationKind, card string, amount string, ts time.Time) loyalty.Operation {
	return loyalty.Operation{
		ID:           card + ts.Format("150405.000000000"),
		Kind:         kind,
		CardNumber:   card,
		Amount:       dec(amount),
		BalanceAfter: dec(amount),
		Timestamp:    ts,
		Description:  "test",
	}
}

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 12, 0, 0, 0, time.UTC)
}

// =============================================================================
// APPEND
// =============================================================================

func TestHistory_Append_PreservesInsertionOrder(t *testing.T) {
	h := loyalty.NewOperationHistory()

	require.NoError(t, h.Append(opAt(loyalty.Accrual, "1111222233334444", "10", day(3))))
	require.NoError(t, h.Append(opAt(loyalty.Accrual, "1111222233334444", "20", day(1))))
	require.NoError(t, h.Append(opAt(loyalty.Deduction, "1111222233334444", "5", day(2))))

	all := h.All()
	require.Len(t, all, 3)
	assert.True(t, all[0].Amount.Equal(dec("10")))
	assert.True(t, all[1].Amount.Equal(dec("20")))
	assert.True(t, all[2].Amount.Equal(dec("5")))
}

func TestHistory_Append_RejectsEmptyOperation(t *testing.T) {
	h := loyalty.NewOperationHistory()

	err := h.Append(loyalty.Operation{})
	assert.ErrorIs(t, err, loyalty.ErrNilOperation)
	assert.Equal(t, 0, h.Count())
}

// =============================================================================
// QUERIES
// =============================================================================

func TestHistory_ByCard(t *testing.T) {
	h := loyalty.NewOperationHistory()
	require.NoError(t, h.Append(opAt(loyalty.Accrual, "1111222233334444", "10", day(1))))
	require.NoError(t, h.Append(opAt(loyalty.Accrual, "5555666677778888", "20", day(2))))
	require.NoError(t, h.Append(opAt(loyalty.Deduction, "1111222233334444", "5", day(3))))

	ops := h.ByCard("1111222233334444")
	require.Len(t, ops, 2)
	assert.Equal(t, loyalty.Accrual, ops[0].Kind)
	assert.Equal(t, loyalty.Deduction, ops[1].Kind)

	assert.Empty(t, h.ByCard("0000000000000000"))
}

func TestHistory_ByPeriod_InclusiveBothEnds(t *testing.T) {
	h := loyalty.NewOperationHistory()
	for d := 1; d <= 5; d++ {
		require.NoError(t, h.Append(opAt(loyalty.Accrual, "1111222233334444", "1", day(d))))
	}

	ops := h.ByPeriod(day(2), day(4))
	require.Len(t, ops, 3)
	assert.Equal(t, day(2), ops[0].Timestamp)
	assert.Equal(t, day(4), ops[2].Timestamp)
}

func TestHistory_ByCardAndPeriod_SortedAscending(t *testing.T) {
	// GIVEN: Operations appended out of timestamp order (clock skew)
	// WHEN: Querying by card and period
	// THEN: The result is sorted ascending by timestamp

	h := loyalty.NewOperationHistory()
	require.NoError(t, h.Append(opAt(loyalty.Accrual, "1111222233334444", "30", day(3))))
	require.NoError(t, h.Append(opAt(loyalty.Accrual, "1111222233334444", "10", day(1))))
	require.NoError(t, h.Append(opAt(loyalty.Accrual, "5555666677778888", "99", day(2))))
	require.NoError(t, h.Append(opAt(loyalty.Accrual, "1111222233334444", "20", day(2))))

	ops := h.ByCardAndPeriod("1111222233334444", day(1), day(5))
	require.Len(t, ops, 3)
	assert.True(t, ops[0].Amount.Equal(dec("10")))
	assert.True(t, ops[1].Amount.Equal(dec("20")))
	assert.True(t, ops[2].Amount.Equal(dec("30")))
}

func TestHistory_ByCardAndPeriod_IsIntersection(t *testing.T) {
	h := loyalty.NewOperationHistory()
	require.NoError(t, h.Append(opAt(loyalty.Accrual, "1111222233334444", "1", day(1))))
	require.NoError(t, h.Append(opAt(loyalty.Accrual, "1111222233334444", "2", day(3))))
	require.NoError(t, h.Append(opAt(loyalty.Accrual, "5555666677778888", "3", day(3))))
	require.NoError(t, h.Append(opAt(loyalty.Accrual, "1111222233334444", "4", day(9))))

	byCard := h.ByCard("1111222233334444")
	byPeriod := h.ByPeriod(day(2), day(5))
	both := h.ByCardAndPeriod("1111222233334444", day(2), day(5))

	// Every result is in both single-filter sets, and nothing more.
	ids := func(ops []loyalty.Operation) map[string]bool {
		m := make(map[string]bool)
		for _, op := range ops {
			m[op.ID] = true
		}
		return m
	}
	cardIDs, periodIDs := ids(byCard), ids(byPeriod)

	require.Len(t, both, 1)
	for _, op := range both {
		assert.True(t, cardIDs[op.ID])
		assert.True(t, periodIDs[op.ID])
	}
	for id := range cardIDs {
		if periodIDs[id] {
			assert.True(t, ids(both)[id], "intersection missing %s", id)
		}
	}
}

func TestHistory_ByType(t *testing.T) {
	h := loyalty.NewOperationHistory()
	require.NoError(t, h.Append(opAt(loyalty.Accrual, "1111222233334444", "10", day(1))))
	require.NoError(t, h.Append(opAt(loyalty.Deduction, "1111222233334444", "5", day(2))))
	require.NoError(t, h.Append(opAt(loyalty.Accrual, "5555666677778888", "20", day(3))))

	assert.Len(t, h.ByType(loyalty.Accrual), 2)
	assert.Len(t, h.ByType(loyalty.Deduction), 1)
}

// =============================================================================
// COUNT / CLEAR
// =============================================================================

func TestHistory_CountAndClear(t *testing.T) {
	h := loyalty.NewOperationHistory()
	assert.Equal(t, 0, h.Count())

	require.NoError(t, h.Append(opAt(loyalty.Accrual, "1111222233334444", "10", day(1))))
	require.NoError(t, h.Append(opAt(loyalty.Deduction, "1111222233334444", "5", day(2))))
	assert.Equal(t, 2, h.Count())

	h.Clear()
	assert.Equal(t, 0, h.Count())
	assert.Empty(t, h.All())
}
