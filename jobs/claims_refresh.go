package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/lumina-lms/lumina-lms/internal/shared"
)

// ClaimsRefresher removes permission claims that reference deleted rows.
// Instance claims on courses and contents are granted individually, so a
// deletion can leave grants behind that BuildClaims would still parse.
type ClaimsRefresher struct {
	pool   *pgxpool.Pool
	redis  *redis.Client
	logger *slog.Logger
}

// NewClaimsRefresher constructs a refresher.
func NewClaimsRefresher(pool *pgxpool.Pool, rdb *redis.Client, logger *slog.Logger) *ClaimsRefresher {
	return &ClaimsRefresher{pool: pool, redis: rdb, logger: logger}
}

// Handle processes TaskClaimsRefresh tasks.
func (c *ClaimsRefresher) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ClaimsRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	if c.redis != nil && payload.CourseID != "" {
		key := shared.ClaimsRefreshLockKey(payload.CourseID)
		locked, err := c.redis.SetNX(ctx, key, "1", time.Minute).Result()
		if err != nil {
			return err
		}
		if !locked {
			c.logger.Info("claims refresh already running", slog.String("course_id", payload.CourseID))
			return nil
		}
		defer c.redis.Del(context.WithoutCancel(ctx), key)
	}

	pruned, err := c.pruneOrphans(ctx, payload.CourseID)
	if err != nil {
		c.logger.Error("claims refresh", slog.Any("error", err))
		return err
	}
	c.logger.Info("claims refresh complete",
		slog.String("course_id", payload.CourseID),
		slog.Int64("pruned", pruned))
	return nil
}

func (c *ClaimsRefresher) pruneOrphans(ctx context.Context, courseID string) (int64, error) {
	if c.pool == nil {
		return 0, nil
	}
	// Claim values are resource:action:id; split on the last colon to
	// recover the instance id.
	courseSQL := `
		DELETE FROM user_claims
		WHERE value LIKE 'course:%:%'
		  AND split_part(value, ':', 3) NOT IN (SELECT id::text FROM courses)`
	contentSQL := `
		DELETE FROM user_claims
		WHERE value LIKE 'course_content:%:%'
		  AND split_part(value, ':', 3) NOT IN (SELECT id::text FROM course_contents)`
	courseArgs := []any{}
	if courseID != "" {
		courseSQL += ` AND split_part(value, ':', 3) = $1`
		courseArgs = append(courseArgs, courseID)
	}

	var pruned int64
	tagCourse, err := c.pool.Exec(ctx, courseSQL, courseArgs...)
	if err != nil {
		return pruned, err
	}
	pruned += tagCourse.RowsAffected()
	// Content rows cascade with their course, so the content sweep always
	// runs unscoped.
	tagContent, err := c.pool.Exec(ctx, contentSQL)
	if err != nil {
		return pruned, err
	}
	pruned += tagContent.RowsAffected()
	return pruned, nil
}
