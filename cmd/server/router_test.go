package main

import (
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "ledgerguard/internal/jwt_token"
	"ledgerguard/internal/platform/config"
	tokenhandler "ledgerguard/internal/token/handler"
	audit "ledgerguard/pkg/platform/audit"
	audithandler "ledgerguard/pkg/platform/audit/handler"
	"ledgerguard/pkg/platform/audit/store/memory"
	"ledgerguard/pkg/testutil"
)

// newRouter and buildService register collectors on the default registry,
// so this is the only test that calls them.
func TestRouterWiring(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	owner := common.HexToAddress("0x00000000000000000000000000000000000000a0")
	alice := common.HexToAddress("0x00000000000000000000000000000000000000b1")

	store := memory.NewInMemoryStore()
	service, err := buildService(config.TokenConfig{
		Owner:                 owner,
		InitialSupply:         big.NewInt(1000),
		WhitelistEnabled:      false,
		BlacklistEnabled:      true,
		Logic:                 "direct",
		AllowOwnerSelfRemoval: true,
	}, audit.NewPublisher(store), log)
	require.NoError(t, err)

	jwtService := jwttoken.NewJWTService("test-key", "ledgerguard", "ledgerguard-api")
	router := newRouter(routerDeps{
		service:     service,
		store:       store,
		validator:   jwttoken.NewJWTServiceAdapter(jwtService),
		jwtService:  jwtService,
		devTokenTTL: time.Minute,
		logger:      log,
	})

	authed := func(t *testing.T, req *http.Request, account common.Address) *http.Request {
		signed, err := jwtService.GenerateToken(account, time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+signed)
		return req
	}

	testutil.Given(t, "a server on the direct logic", func(t *testing.T) {
		testutil.When(t, "probing health and metrics", func(t *testing.T) {
			health := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
			metrics := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))

			testutil.Then(t, "both answer 200", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, health.Code)
				assert.Equal(t, http.StatusOK, metrics.Code)
			})
		})

		testutil.When(t, "an anonymous caller mints", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/v1/mint",
				map[string]string{"account": alice.Hex(), "amount": "5"}))

			testutil.Then(t, "the write is rejected as unauthenticated", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
			})
		})

		testutil.When(t, "the owner transfers with a bearer token", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/transfer",
				map[string]string{"account": alice.Hex(), "amount": "25"})
			rr := testutil.DoRequest(router, authed(t, req, owner))

			testutil.Then(t, "funds move and the audit trail records it", func(t *testing.T) {
				require.Equal(t, http.StatusNoContent, rr.Code)

				acct := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/v1/accounts/"+alice.Hex(), nil))
				require.Equal(t, http.StatusOK, acct.Code)
				assert.Equal(t, "25", testutil.UnmarshalResponse[tokenhandler.AccountResponse](t, acct).Balance)

				events := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/v1/audit/events?action=transfer", nil))
				require.Equal(t, http.StatusOK, events.Code)
				resp := testutil.UnmarshalResponse[audithandler.EventsResponse](t, events)
				require.Len(t, resp.Events, 1)
				assert.Equal(t, owner.Hex(), resp.Events[0].ActorID)
			})
		})
	})
}
