package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "fedbridge/internal/jwt_token"
	"fedbridge/internal/mintregistry"
	"fedbridge/internal/policy"
	"fedbridge/internal/policy/spendtotals"
	"fedbridge/internal/swap"
	"fedbridge/internal/wallet"
)

type testServer struct {
	router *chi.Mux
	jwt    *jwttoken.JWTService
	mints  *mintregistry.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mints := mintregistry.NewRegistry()
	wallets := wallet.NewRegistry()
	for _, p := range []mintregistry.Protocol{
		mintregistry.ProtocolFedimint,
		mintregistry.ProtocolCashu,
		mintregistry.ProtocolNative,
		mintregistry.ProtocolLightning,
	} {
		wallets.Register(p, wallet.NewSimulator())
	}

	orch, err := swap.New(
		swap.NewInMemoryStore(),
		spendtotals.NewInMemoryStore(),
		mints,
		wallets,
		policy.NewEngine(policy.Limits{}),
	)
	require.NoError(t, err)

	jwtService := jwttoken.NewJWTService("test-signing-key", "test-issuer", "test-audience")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := New(orch, mints, logger, nil, jwttoken.NewJWTServiceAdapter(jwtService))
	router := chi.NewRouter()
	handler.Register(router)

	return &testServer{router: router, jwt: jwtService, mints: mints}
}

func (ts *testServer) token(t *testing.T, handle, role string) string {
	t.Helper()
	token, err := ts.jwt.GenerateAccessToken(handle, role, uuid.New(), time.Hour)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func swapRequest(amount int64) swap.Request {
	return swap.Request{
		SourceEndpoint:      "wss://federation.satnam.pub",
		DestinationEndpoint: "https://mint.minibits.cash",
		Amount:              amount,
	}
}

func TestSubmitSwap(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "npub1adult", "adult")

	w := ts.do(t, http.MethodPost, "/bridge/swaps", token, swapRequest(50_000))
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.NotEmpty(t, body["swap_id"])
	assert.Equal(t, "confirmation", body["status"])
	assert.Equal(t, float64(50_000), body["amount"])
	assert.Equal(t, "fedimint", body["source_protocol"])
	assert.Equal(t, "cashu", body["destination_protocol"])
	require.Contains(t, body, "fees")
	log := body["log"].([]any)
	assert.Len(t, log, 5, "full access tier carries the complete transition log")
	assert.NotContains(t, w.Body.String(), "npub1adult", "raw handles never appear in responses")
}

func TestSubmitSwap_RequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/bridge/swaps", "", swapRequest(1_000))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/bridge/swaps", "garbage-token", swapRequest(1_000))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitSwap_InvalidBody(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "npub1adult", "adult")

	req := httptest.NewRequest(http.MethodPost, "/bridge/swaps", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitSwap_BasicTierRedaction(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "npub1kid", "offspring")

	w := ts.do(t, http.MethodPost, "/bridge/swaps", token, swapRequest(500))
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.NotEmpty(t, body["swap_id"])
	assert.Equal(t, "confirmation", body["status"])
	assert.NotContains(t, body, "fees")
	assert.NotContains(t, body, "source_protocol")
	assert.NotContains(t, body, "log")
}

func TestSubmitSwap_PolicyDenial(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "npub1kid", "offspring")

	w := ts.do(t, http.MethodPost, "/bridge/swaps", token, swapRequest(30_000))
	require.Equal(t, http.StatusForbidden, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "forbidden", body["error"])
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(25_000), meta["effective_limit"])
}

func TestApprovalFlow(t *testing.T) {
	ts := newTestServer(t)
	offspring := ts.token(t, "npub1kid", "offspring")
	guardian := ts.token(t, "npub1guardian", "guardian")

	w := ts.do(t, http.MethodPost, "/bridge/swaps", offspring, swapRequest(15_000))
	require.Equal(t, http.StatusAccepted, w.Code)
	body := decodeBody(t, w)
	swapID := body["swap_id"].(string)
	assert.Equal(t, "validation", body["status"])
	assert.Equal(t, true, body["requires_approval"])

	t.Run("offspring cannot approve", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/bridge/swaps/"+swapID+"/approval", offspring,
			map[string]string{"decision": "approve"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("guardian approves and the swap completes", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/bridge/swaps/"+swapID+"/approval", guardian,
			map[string]string{"decision": "approve"})
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "confirmation", body["status"])
	})

	t.Run("owner can read the completed swap", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/bridge/swaps/"+swapID, offspring, nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "confirmation", body["status"])
	})
}

func TestGetSwap_NotFoundIndistinguishable(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.token(t, "npub1adult", "adult")
	stranger := ts.token(t, "npub1stranger", "adult")

	w := ts.do(t, http.MethodPost, "/bridge/swaps", owner, swapRequest(1_000))
	require.Equal(t, http.StatusCreated, w.Code)
	swapID := decodeBody(t, w)["swap_id"].(string)

	unknown := ts.do(t, http.MethodGet, "/bridge/swaps/0000000000000000", owner, nil)
	foreign := ts.do(t, http.MethodGet, "/bridge/swaps/"+swapID, stranger, nil)

	assert.Equal(t, http.StatusNotFound, unknown.Code)
	assert.Equal(t, http.StatusNotFound, foreign.Code)
	assert.JSONEq(t, unknown.Body.String(), foreign.Body.String(),
		"a foreign swap and a missing swap answer identically")
}

func TestListSwaps(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "npub1adult", "adult")

	for _, amount := range []int64{1_000, 2_000, 3_000} {
		w := ts.do(t, http.MethodPost, "/bridge/swaps", token, swapRequest(amount))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := ts.do(t, http.MethodGet, "/bridge/swaps", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Len(t, body["swaps"].([]any), 3)

	other := ts.token(t, "npub1other", "adult")
	w = ts.do(t, http.MethodGet, "/bridge/swaps", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Empty(t, body["swaps"])
}

func TestListProtocols(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, "npub1adult", "adult")
	ts.mints.SetEnabled(mintregistry.ProtocolLightning, false)

	w := ts.do(t, http.MethodGet, "/bridge/protocols", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	protocols := body["protocols"].([]any)
	require.Len(t, protocols, 4)
	byName := make(map[string]bool, len(protocols))
	for _, p := range protocols {
		entry := p.(map[string]any)
		byName[entry["protocol"].(string)] = entry["enabled"].(bool)
	}
	assert.False(t, byName["lightning"])
	assert.True(t, byName["fedimint"])
}
