package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// insertAuditSQL must stay in step with the audit_logs DDL in scripts/seed.
const insertAuditSQL = `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	ActorID  string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// auditInsertArgs renders the positional arguments for insertAuditSQL.
// A zero At becomes NULL so the database fills occurred_at with NOW();
// passing the zero time.Time directly would store year 1.
func auditInsertArgs(log AuditLog) ([]any, error) {
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return nil, err
	}
	var at *time.Time
	if !log.At.IsZero() {
		t := log.At.UTC()
		at = &t
	}
	return []any{log.ActorID, log.Action, log.Entity, log.EntityID, metaJSON, at}, nil
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" {
		return errors.New("audit log requires action/entity")
	}
	args, err := auditInsertArgs(log)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, insertAuditSQL, args...)
	return err
}

// RecordDenial writes an audit entry for a rejected permission check.
// Denials are terminal for the request, so failures here are reported but
// never block the response.
func (l *AuditLogger) RecordDenial(ctx context.Context, actorID, entity, action string) error {
	return l.Record(ctx, AuditLog{
		ActorID: actorID,
		Action:  "authz.denied",
		Entity:  entity,
		Meta:    map[string]any{"attempted_action": action},
	})
}
