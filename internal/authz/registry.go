package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrForbidden is returned when a principal has no standing at all for an
// action, as opposed to a scoped query that currently matches no rows.
// The surrounding API layer decides whether to surface it as 403 or 404.
var ErrForbidden = errors.New("authz: forbidden")

// DecisionRecorder receives every registry-level permission decision, for
// metrics. Implementations must be safe for concurrent use.
type DecisionRecorder interface {
	RecordDecision(entity string, action string, allowed bool)
}

// Registry maps entity names to permission handlers. It is populated once
// at process startup and read-only afterwards, which makes concurrent
// reads from request goroutines safe without locking.
type Registry struct {
	handlers map[string]Handler
	fallback Handler
	logger   *slog.Logger
	recorder DecisionRecorder
	sealed   bool
}

// NewRegistry constructs an empty registry whose fallback is the
// fail-closed admin-only handler. logger and recorder may be nil.
func NewRegistry(logger *slog.Logger, recorder DecisionRecorder) *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		fallback: NewAdminOnlyHandler(),
		logger:   logger,
		recorder: recorder,
	}
}

// Register binds a handler to an entity or category name. Registering the
// same name twice with a different handler is a programmer error and
// panics; registration happens once during startup wiring, so the panic
// surfaces immediately. Registering after Seal panics for the same reason.
func (r *Registry) Register(name string, handler Handler) {
	if r.sealed {
		panic(fmt.Sprintf("authz: register %q after registry was sealed", name))
	}
	if name == "" || handler == nil {
		panic("authz: register requires a name and a handler")
	}
	if existing, ok := r.handlers[name]; ok {
		if existing == handler {
			return
		}
		panic(fmt.Sprintf("authz: conflicting handler registration for %q", name))
	}
	r.handlers[name] = handler
}

// Seal marks the end of startup registration. Afterwards the registry is
// immutable and safe for concurrent reads.
func (r *Registry) Seal() {
	r.sealed = true
}

// Resolve returns the handler responsible for entity. Resolution is
// deterministic and total: exact name first, then the declared base
// categories in order, then the admin-only fallback.
func (r *Registry) Resolve(entity Entity) Handler {
	if h, ok := r.handlers[entity.Name]; ok {
		return h
	}
	for _, base := range entity.Bases {
		if h, ok := r.handlers[base]; ok {
			return h
		}
	}
	if r.logger != nil {
		r.logger.Warn("no permission handler registered, failing closed",
			slog.String("entity", entity.Name))
	}
	return r.fallback
}

// CheckPermissions is the top-level entry point for listing/read scoping:
// it resolves the entity's handler and builds the filtered query. It
// returns ErrForbidden when the principal has zero visibility for the
// action; infrastructure errors propagate unchanged and are never
// conflated with denial.
func (r *Registry) CheckPermissions(ctx context.Context, p *Principal, entity Entity, action Action, db *pgxpool.Pool) (*Query, error) {
	handler := r.Resolve(entity)
	q, err := handler.BuildQuery(ctx, p, entity, action, db)
	allowed := err == nil
	if r.recorder != nil {
		r.recorder.RecordDecision(entity.Name, string(action), allowed)
	}
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			if r.logger != nil {
				r.logger.Warn("permission denied",
					slog.String("entity", entity.Name),
					slog.String("action", string(action)),
					slog.String("user_id", userIDOf(p)))
			}
			return nil, err
		}
		return nil, fmt.Errorf("authz: build query for %s.%s: %w", entity.Name, action, err)
	}
	return q, nil
}

// CanPerform resolves the entity's handler and applies its single-action
// gate. Used for mutations on one instance once the target is known.
func (r *Registry) CanPerform(p *Principal, entity Entity, action Action, resourceID string) bool {
	allowed := r.Resolve(entity).CanPerform(p, entity, action, resourceID)
	if r.recorder != nil {
		r.recorder.RecordDecision(entity.Name, string(action), allowed)
	}
	return allowed
}

// CheckAdmin reports whether the principal is an admin.
func (r *Registry) CheckAdmin(p *Principal) bool {
	return p != nil && p.Admin
}

func userIDOf(p *Principal) string {
	if p == nil {
		return ""
	}
	return p.UserID
}
