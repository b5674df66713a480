package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerguard/internal/token"
	"ledgerguard/pkg/domain"
	"ledgerguard/pkg/testutil"
)

var (
	ownerAddr = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	adminAddr = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	aliceAddr = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	bobAddr   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	st, err := token.NewState(token.Genesis{
		Owner:         ownerAddr,
		InitialSupply: big.NewInt(1000),
		Logic:         token.DirectLogicAddress,
	})
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := token.New(st, token.NewRegistry(), token.WithLogger(logger))
	require.NoError(t, err)

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r
}

func do(t *testing.T, router http.Handler, method, path string, caller domain.Address, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.WithCaller(testutil.NewJSONRequest(t, method, path, body), caller)
	return testutil.DoRequest(router, req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestWritesRequireCaller(t *testing.T) {
	router := newRouter(t)
	rec := do(t, router, http.MethodPost, "/pause", domain.ZeroAddress, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleLifecycle(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodPost, "/roles/pauser", ownerAddr, map[string]string{"address": adminAddr.Hex()})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/roles/pauser/"+adminAddr.Hex(), domain.ZeroAddress, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[RoleResponse](t, rec).HasRole)

	rec = do(t, router, http.MethodPost, "/roles/admin", aliceAddr, map[string]string{"address": bobAddr.Hex()})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "forbidden", body["error"])
	assert.Equal(t, "OwnerRole: caller does not have the Owner role", body["error_description"])

	rec = do(t, router, http.MethodPost, "/roles/pauser", ownerAddr, map[string]string{"address": adminAddr.Hex()})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/roles/minter", ownerAddr, map[string]string{"address": domain.ZeroAddress.Hex()})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, router, http.MethodGet, "/roles/superuser/"+adminAddr.Hex(), domain.ZeroAddress, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodDelete, "/roles/pauser/"+adminAddr.Hex(), ownerAddr, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRestrictedTransferReportsCode(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodPut, "/whitelist/enabled", ownerAddr, map[string]bool{"enabled": true})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/restrictions/evaluate?from="+ownerAddr.Hex()+"&to="+aliceAddr.Hex()+"&amount=5", domain.ZeroAddress, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	eval := decode[EvaluationResponse](t, rec)
	assert.Equal(t, uint8(1), eval.Code)
	assert.Equal(t, "The transfer was restricted due to white list configuration.", eval.Message)

	rec = do(t, router, http.MethodPost, "/transfer", ownerAddr, map[string]string{"account": aliceAddr.Hex(), "amount": "5"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "transfer_restricted", body["error"])
	assert.EqualValues(t, 1, body["restriction_code"])
}

func TestTransferAndBalances(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodPost, "/transfer", ownerAddr, map[string]string{"account": aliceAddr.Hex(), "amount": "250"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/accounts/"+aliceAddr.Hex(), domain.ZeroAddress, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	acct := decode[AccountResponse](t, rec)
	assert.Equal(t, "250", acct.Balance)
	assert.Empty(t, acct.Roles)

	rec = do(t, router, http.MethodGet, "/accounts/"+ownerAddr.Hex(), domain.ZeroAddress, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Owner"}, decode[AccountResponse](t, rec).Roles)

	rec = do(t, router, http.MethodPost, "/transfer", aliceAddr, map[string]string{"account": bobAddr.Hex(), "amount": "-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/transfer", aliceAddr, map[string]string{"account": bobAddr.Hex(), "amount": "999"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestEscrowFlow(t *testing.T) {
	router := newRouter(t)

	require.Equal(t, http.StatusNoContent,
		do(t, router, http.MethodPost, "/roles/admin", ownerAddr, map[string]string{"address": adminAddr.Hex()}).Code)
	require.Equal(t, http.StatusNoContent,
		do(t, router, http.MethodPost, "/transfer", ownerAddr, map[string]string{"account": aliceAddr.Hex(), "amount": "100"}).Code)

	rec := do(t, router, http.MethodPost, "/proposals/0/approve", adminAddr, nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = do(t, router, http.MethodPut, "/logic", ownerAddr, map[string]string{"name": "escrow"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/logic", domain.ZeroAddress, nil)
	assert.Equal(t, "escrow", decode[LogicResponse](t, rec).Name)

	rec = do(t, router, http.MethodPost, "/transfer", aliceAddr, map[string]string{"account": bobAddr.Hex(), "amount": "40"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/proposals/0", domain.ZeroAddress, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[ProposalResponse](t, rec)
	assert.Equal(t, "pending", p.State)
	assert.Equal(t, aliceAddr.Hex(), p.Creator)

	rec = do(t, router, http.MethodGet, "/proposals/9", domain.ZeroAddress, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, router, http.MethodPost, "/proposals/0/approve", adminAddr, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodPost, "/proposals/0/approve", adminAddr, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodGet, "/accounts/"+bobAddr.Hex(), domain.ZeroAddress, nil)
	assert.Equal(t, "40", decode[AccountResponse](t, rec).Balance)

	rec = do(t, router, http.MethodGet, "/proposals?state=approved", domain.ZeroAddress, nil)
	list := decode[ProposalListResponse](t, rec)
	assert.Equal(t, uint64(1), list.Total)
	assert.Len(t, list.Proposals, 1)
}

func TestLogicUpdateValidation(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodPut, "/logic", ownerAddr, map[string]string{"address": domain.ZeroAddress.Hex()})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, router, http.MethodPut, "/logic", ownerAddr, map[string]string{"name": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPut, "/logic", ownerAddr, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessages(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodGet, "/restrictions/messages/2", domain.ZeroAddress, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	msg := decode[MessageResponse](t, rec)
	assert.Equal(t, "The transfer was restricted due to the contract being paused.", msg.Message)
	assert.Equal(t, "paused", msg.Name)

	rec = do(t, router, http.MethodGet, "/restrictions/messages/77", domain.ZeroAddress, nil)
	assert.Equal(t, "Unknown Error Code", decode[MessageResponse](t, rec).Message)

	for _, code := range []string{"255", "256", "300", "-1", "115792089237316195423570985008687907853269984665640564039457584007913129639936"} {
		rec = do(t, router, http.MethodGet, "/restrictions/messages/"+code, domain.ZeroAddress, nil)
		require.Equal(t, http.StatusOK, rec.Code, code)
		msg := decode[MessageResponse](t, rec)
		assert.Equal(t, "Unknown Error Code", msg.Message, code)
		assert.Equal(t, code, msg.Code.String())
	}

	rec = do(t, router, http.MethodGet, "/restrictions/messages/abc", domain.ZeroAddress, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/restrictions/messages", domain.ZeroAddress, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[MessagesResponse](t, rec).Messages
	require.Len(t, list, 4)
	assert.Equal(t, "success", list[0].Name)
	assert.Equal(t, "Restricted due to blacklist", list[3].Message)
}

func TestWhitelistEndpoints(t *testing.T) {
	router := newRouter(t)
	require.Equal(t, http.StatusNoContent,
		do(t, router, http.MethodPost, "/roles/whitelister", ownerAddr, map[string]string{"address": adminAddr.Hex()}).Code)

	rec := do(t, router, http.MethodPost, "/whitelist", adminAddr, map[string]any{"address": aliceAddr.Hex(), "whitelist": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, router, http.MethodPost, "/whitelist", adminAddr, map[string]any{"address": aliceAddr.Hex(), "whitelist": 3})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/whitelist/"+aliceAddr.Hex(), domain.ZeroAddress, nil)
	assert.Equal(t, uint8(3), decode[WhitelistResponse](t, rec).Whitelist)

	rec = do(t, router, http.MethodPut, "/whitelist/outbound", adminAddr, map[string]any{"source": 3, "destination": 3, "enabled": true})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/whitelist/outbound/3/3", domain.ZeroAddress, nil)
	assert.True(t, decode[OutboundResponse](t, rec).Enabled)

	rec = do(t, router, http.MethodDelete, "/whitelist/"+bobAddr.Hex(), adminAddr, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPut, "/whitelist/outbound", adminAddr, map[string]any{"source": 3, "destination": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
