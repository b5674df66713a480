package token

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ledgerguard/internal/restriction"
	"ledgerguard/internal/roles"
	"ledgerguard/internal/token/metrics"
	"ledgerguard/pkg/domain"
	dErrors "ledgerguard/pkg/domain-errors"
	audit "ledgerguard/pkg/platform/audit"
	"ledgerguard/pkg/requestcontext"
)

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Config holds the behavioral switches of the front door.
type Config struct {
	// AllowOwnerSelfRemoval lets an Owner revoke its own Owner role.
	AllowOwnerSelfRemoval bool
	// ExemptOwners lets transfers sent by an Owner bypass list checks.
	ExemptOwners bool
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{AllowOwnerSelfRemoval: true}
}

// Service is the single entry point for every ledger operation. It holds one
// lock for the whole State, so each operation observes and leaves a
// consistent snapshot.
type Service struct {
	mu       sync.RWMutex
	state    *State
	registry *Registry
	engine   *restriction.Engine
	cfg      Config

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// New constructs a Service over st. The registry must hold the
// implementation st currently points at.
func New(st *State, registry *Registry, opts ...Option) (*Service, error) {
	if st == nil || registry == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "token service requires state and registry")
	}
	if _, ok := registry.Lookup(st.LogicAddress()); !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "logic address is not registered")
	}
	s := &Service{
		state:    st,
		registry: registry,
		cfg:      DefaultConfig(),
		logger:   slog.Default(),
		tracer:   otel.Tracer("ledgerguard/internal/token"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = restriction.New(st.Whitelist, st.Blacklist,
		restriction.WithOwnerChecker(func(addr domain.Address) bool {
			return st.Roles.Has(roles.Owner, addr)
		}))
	return s, nil
}

// execute runs fn under the write lock and publishes the events it recorded
// once the lock is released. fn must validate before it mutates: an error
// return means State is unchanged.
func (s *Service) execute(ctx context.Context, op string, fn func(ctx context.Context, call *Call) error) error {
	ctx, span := s.tracer.Start(ctx, "token."+op)
	defer span.End()
	start := time.Now()

	call := &Call{
		Caller:    requestcontext.Caller(ctx),
		RequestID: requestcontext.RequestID(ctx),
		Now:       requestcontext.Now(ctx),
	}
	span.SetAttributes(attribute.String("caller", call.Caller.Hex()))

	s.mu.Lock()
	err := fn(ctx, call)
	s.mu.Unlock()

	s.metrics.ObserveOperation(op, start)
	if err != nil {
		code := string(dErrors.CodeOf(err))
		s.metrics.IncOperationFailure(op, code)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.code", code))
		s.logger.DebugContext(ctx, "operation rejected",
			"operation", op,
			"caller", call.Caller.Hex(),
			"code", code,
			"error", err,
			"request_id", call.RequestID,
		)
		return err
	}

	s.publish(ctx, call.Events())
	return nil
}

func (s *Service) publish(ctx context.Context, events []audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, e := range events {
		if err := s.auditPublisher.Emit(ctx, e); err != nil {
			s.logger.ErrorContext(ctx, "failed to emit audit event",
				"action", e.Action,
				"subject", e.Subject,
				"error", err,
				"request_id", e.RequestID,
			)
		}
	}
}

func (s *Service) activeLogic() (Logic, error) {
	impl, ok := s.registry.Lookup(s.state.logic)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "active logic is not registered")
	}
	return impl, nil
}

// UpdateCodeAddress repoints the front door at the implementation registered
// at newImpl. The candidate must answer the proxiable probe with
// ProxiableMarker; any failure leaves the pointer unchanged.
func (s *Service) UpdateCodeAddress(ctx context.Context, newImpl domain.Address) error {
	return s.execute(ctx, "update_code_address", func(_ context.Context, call *Call) error {
		if err := s.state.Roles.Authorize(roles.Owner, call.Caller); err != nil {
			return err
		}
		if domain.IsZero(newImpl) {
			return dErrors.New(dErrors.CodeOutOfRange, "Contract Logic cannot be 0x0")
		}
		impl, ok := s.registry.Lookup(newImpl)
		if !ok {
			return dErrors.New(dErrors.CodeBadRequest, "no implementation at address")
		}
		probe, ok := impl.(Proxiable)
		if !ok {
			return dErrors.New(dErrors.CodeBadRequest, "implementation is not proxiable")
		}
		marker, err := probe.ProxiableUUID()
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, "implementation is not proxiable")
		}
		if marker != ProxiableMarker {
			return dErrors.New(dErrors.CodeBadRequest, "Not compatible")
		}

		s.state.logic = newImpl
		call.record(audit.EventCodeAddressUpdated, domain.ZeroAddress, map[string]string{
			"new_address": newImpl.Hex(),
			"logic":       impl.Name(),
		})
		s.logger.InfoContext(ctx, "logic implementation updated",
			"address", newImpl.Hex(),
			"logic", impl.Name(),
			"request_id", call.RequestID,
		)
		return nil
	})
}

// GetLogicAddress returns the active implementation pointer.
func (s *Service) GetLogicAddress() domain.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.logic
}

// LogicName returns the name of the active implementation.
func (s *Service) LogicName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	impl, err := s.activeLogic()
	if err != nil {
		return ""
	}
	return impl.Name()
}
