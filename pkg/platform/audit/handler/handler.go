// Package handler exposes the audit trail over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ledgerguard/pkg/domain"
	dErrors "ledgerguard/pkg/domain-errors"
	audit "ledgerguard/pkg/platform/audit"
	"ledgerguard/pkg/platform/httputil"
	strutil "ledgerguard/pkg/platform/strings"
	"ledgerguard/pkg/requestcontext"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Reader is the query side of an audit store.
type Reader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
	ListBySubject(ctx context.Context, subject string) ([]audit.Event, error)
	ListByActions(ctx context.Context, actions []string, limit int) ([]audit.Event, error)
}

type Handler struct {
	reader Reader
	logger *slog.Logger
}

func New(reader Reader, logger *slog.Logger) *Handler {
	return &Handler{reader: reader, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/audit/events", h.HandleList)
}

type EventsResponse struct {
	Events []audit.Event `json:"events"`
}

// HandleList handles GET /audit/events. Filters: subject=<address>,
// action=<a,b,...>, limit=<n>. subject takes precedence over action.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	limit := defaultLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxLimit)
	}

	var (
		events []audit.Event
		err    error
	)
	switch {
	case q.Get("subject") != "":
		addr, perr := domain.ParseAddress(q.Get("subject"))
		if perr != nil {
			httputil.WriteError(w, perr)
			return
		}
		events, err = h.reader.ListBySubject(ctx, addr.Hex())
		if len(events) > limit {
			events = events[:limit]
		}
	case q.Get("action") != "":
		events, err = h.reader.ListByActions(ctx, strutil.DedupeAndTrimLower(strings.Split(q.Get("action"), ",")), limit)
	default:
		events, err = h.reader.ListRecent(ctx, limit)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, &EventsResponse{Events: events})
}
