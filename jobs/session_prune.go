package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionPruner deletes expired rows from the sessions audit table. The
// redis copies expire on their own; the PostgreSQL rows back session
// listings and need an explicit sweep.
type SessionPruner struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewSessionPruner constructs a pruner.
func NewSessionPruner(pool *pgxpool.Pool, logger *slog.Logger) *SessionPruner {
	return &SessionPruner{pool: pool, logger: logger}
}

// Handle processes TaskSessionPrune tasks.
func (p *SessionPruner) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SessionPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if p.pool == nil {
		return nil
	}
	tag, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		p.logger.Error("session prune", slog.Any("error", err))
		return err
	}
	p.logger.Info("session prune complete",
		slog.Int64("removed", tag.RowsAffected()),
		slog.Time("scheduled_for", payload.ScheduledFor))
	return nil
}
