package main

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "ledgerguard/internal/jwt_token"
	"ledgerguard/pkg/testutil"
)

func TestDevTokenHandler(t *testing.T) {
	jwtService := jwttoken.NewJWTService("test-key", "ledgerguard", "ledgerguard-api")
	h := devTokenHandler(jwtService, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	alice := common.HexToAddress("0x00000000000000000000000000000000000000b1")

	t.Run("issues a token whose subject is the account", func(t *testing.T) {
		rr := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodPost, "/dev/token",
			map[string]string{"account": alice.Hex()}))
		require.Equal(t, http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[devTokenResponse](t, rr)
		assert.Equal(t, "Bearer", resp.TokenType)

		claims, err := jwtService.ValidateToken(resp.AccessToken)
		require.NoError(t, err)
		account, err := claims.Account()
		require.NoError(t, err)
		assert.Equal(t, alice, account)
	})

	t.Run("rejects a malformed account", func(t *testing.T) {
		rr := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodPost, "/dev/token",
			map[string]string{"account": "alice"}))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("rejects the zero account", func(t *testing.T) {
		rr := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodPost, "/dev/token",
			map[string]string{"account": common.Address{}.Hex()}))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}
