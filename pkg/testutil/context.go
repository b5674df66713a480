package testutil

import (
	"net/http"

	"ledgerguard/pkg/domain"
	"ledgerguard/pkg/requestcontext"
)

// WithCaller attaches the acting account the way the auth middleware does.
// The zero address leaves the request anonymous.
func WithCaller(req *http.Request, caller domain.Address) *http.Request {
	if domain.IsZero(caller) {
		return req
	}
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}
