package main

import (
	"log/slog"
	"net/http"
	"time"

	jwttoken "ledgerguard/internal/jwt_token"
	"ledgerguard/pkg/domain"
	dErrors "ledgerguard/pkg/domain-errors"
	"ledgerguard/pkg/platform/httputil"
	"ledgerguard/pkg/requestcontext"
)

type devTokenRequest struct {
	Account string `json:"account"`

	parsedAccount domain.Address
}

func (r *devTokenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	addr, err := domain.ParseAddress(r.Account)
	if err != nil {
		return err
	}
	r.parsedAccount = addr
	return nil
}

type devTokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// devTokenHandler issues a caller token for any account. Only mounted when
// DEV_TOKEN_TTL is set.
func devTokenHandler(jwtService *jwttoken.JWTService, ttl time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)
		req, ok := httputil.DecodeAndPrepare[devTokenRequest](w, r, logger, ctx, requestID)
		if !ok {
			return
		}
		signed, err := jwtService.GenerateToken(req.parsedAccount, ttl)
		if err != nil {
			logger.WarnContext(ctx, "failed to issue development token",
				"request_id", requestID,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, &devTokenResponse{
			AccessToken: signed,
			TokenType:   "Bearer",
			ExpiresAt:   time.Now().Add(ttl),
		})
	}
}
