package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loyalty-engine/api"
	"github.com/warp/loyalty-engine/loyalty"
	"github.com/warp/loyalty-engine/loyalty/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *loyalty.Registry) {
	t.Helper()
	registry := loyalty.NewRegistry(store.NewMemory(), loyalty.NewOperationHistory(), nil)
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(registry)))
	t.Cleanup(srv.Close)
	return srv, registry
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// =============================================================================
// REGISTRATION
// =============================================================================

func TestRegisterCard_GeneratesNumber(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/cards", api.RegisterCardRequest{
		ClientName: "Anna Petrova",
		Phone:      "+375445123443",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	card := decodeBody[api.CardDTO](t, resp)
	assert.True(t, loyalty.ValidCardNumber(card.Number))
	assert.Equal(t, "0.00", card.Balance)
	assert.True(t, card.Active)
}

func TestRegisterCard_DuplicateNumber_Conflict(t *testing.T) {
	srv, _ := newTestServer(t)

	req := api.RegisterCardRequest{
		Number:     "1234567890123456",
		ClientName: "Anna Petrova",
		Phone:      "+375445123443",
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/cards", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/cards", req)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestRegisterCard_InvalidInput_BadRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []api.RegisterCardRequest{
		{ClientName: "A", Phone: "+375445123443"},            // name too short
		{ClientName: "Anna", Phone: "12345"},                 // bad phone
		{Number: "bad", ClientName: "Anna", Phone: "+375445123443"}, // bad number
	}
	for _, req := range cases {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/cards", req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	}
}

// =============================================================================
// PURCHASE / DEDUCTION
// =============================================================================

func registerTestCard(t *testing.T, reg *loyalty.Registry) string {
	t.Helper()
	card, err := reg.RegisterCard(context.Background(), "1234567890123456", "Anna Petrova", "+375445123443")
	require.NoError(t, err)
	return card.Number
}

func TestPurchase_AccruesBonus(t *testing.T) {
	srv, reg := newTestServer(t)
	number := registerTestCard(t, reg)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/cards/"+number+"/purchase",
		api.PurchaseRequest{Amount: "1000.00", Description: "groceries"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	op := decodeBody[api.OperationDTO](t, resp)
	assert.Equal(t, "accrual", op.Kind)
	assert.Equal(t, "50.00", op.Amount)
	assert.Equal(t, "50.00", op.BalanceAfter)
}

func TestPurchase_InactiveCard_NoContent(t *testing.T) {
	srv, reg := newTestServer(t)
	number := registerTestCard(t, reg)
	require.NoError(t, reg.Deactivate(context.Background(), number))

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/cards/"+number+"/purchase",
		api.PurchaseRequest{Amount: "1000.00"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestPurchase_UnknownCard_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/cards/0000000000000000/purchase",
		api.PurchaseRequest{Amount: "100.00"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestDeduct_RefusedBelowMinimum(t *testing.T) {
	// GIVEN: A card with balance 50.00 (below the 100.00 minimum)
	// WHEN: Deducting 10.00 over HTTP
	// THEN: 422 and the balance is unchanged

	srv, reg := newTestServer(t)
	number := registerTestCard(t, reg)
	_, err := reg.ProcessPurchase(context.Background(), number, dec("1000.00"), "") // +50.00
	require.NoError(t, err)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/cards/"+number+"/deduct",
		api.DeductRequest{Amount: "10.00"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	balance, err := reg.Balance(context.Background(), number)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("50.00")))
}

func TestDeduct_Succeeds(t *testing.T) {
	srv, reg := newTestServer(t)
	number := registerTestCard(t, reg)
	_, err := reg.ProcessPurchase(context.Background(), number, dec("3000.00"), "") // +150.00
	require.NoError(t, err)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/cards/"+number+"/deduct",
		api.DeductRequest{Amount: "100.00", Description: "discount"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	op := decodeBody[api.OperationDTO](t, resp)
	assert.Equal(t, "deduction", op.Kind)
	assert.Equal(t, "50.00", op.BalanceAfter)
}

// =============================================================================
// HISTORY / STATEMENTS
// =============================================================================

func TestListOperations_ByCard(t *testing.T) {
	srv, reg := newTestServer(t)
	number := registerTestCard(t, reg)
	_, err := reg.ProcessPurchase(context.Background(), number, dec("1000.00"), "first")
	require.NoError(t, err)
	_, err = reg.ProcessPurchase(context.Background(), number, dec("2000.00"), "second")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/cards/" + number + "/operations")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ops := decodeBody[[]api.OperationDTO](t, resp)
	require.Len(t, ops, 2)
	assert.Equal(t, "first", ops[0].Description)
	assert.Equal(t, "second", ops[1].Description)
}

func TestGetStatement_EmptyPeriod_ZeroOperations(t *testing.T) {
	srv, reg := newTestServer(t)
	number := registerTestCard(t, reg)

	resp, err := http.Get(srv.URL + "/api/cards/" + number + "/statement?from=2000-01-01&to=2000-12-31")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st := decodeBody[api.StatementDTO](t, resp)
	assert.Equal(t, 0, st.Operations)
	assert.Empty(t, st.Text)
}

func TestGetStatement_WithOperations(t *testing.T) {
	srv, reg := newTestServer(t)
	number := registerTestCard(t, reg)
	_, err := reg.ProcessPurchase(context.Background(), number, dec("3000.00"), "groceries")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/cards/" + number + "/statement?from=2000-01-01&to=2100-01-01")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st := decodeBody[api.StatementDTO](t, resp)
	assert.Equal(t, 1, st.Operations)
	assert.Contains(t, st.Text, "Total accrued: 150.00")
}

func TestGetStatement_BadPeriod_BadRequest(t *testing.T) {
	srv, reg := newTestServer(t)
	number := registerTestCard(t, reg)

	resp, err := http.Get(srv.URL + "/api/cards/" + number + "/statement?from=nope&to=2100-01-01")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
