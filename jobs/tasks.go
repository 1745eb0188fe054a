package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskClaimsRefresh prunes permission claims left dangling after
	// course or content deletions.
	TaskClaimsRefresh = "authz:claims_refresh"
	// TaskSessionPrune removes expired session rows.
	TaskSessionPrune = "auth:session_prune"
)

// ClaimsRefreshPayload scopes a refresh run. An empty CourseID sweeps all
// courses.
type ClaimsRefreshPayload struct {
	CourseID string `json:"course_id,omitempty"`
}

// NewClaimsRefreshTask constructs an Asynq task for a claims refresh.
func NewClaimsRefreshTask(payload ClaimsRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskClaimsRefresh, data, asynq.Queue(QueueDefault)), nil
}

// SessionPrunePayload carries scheduling metadata.
type SessionPrunePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewSessionPruneTask constructs an Asynq task for the session prune run.
func NewSessionPruneTask(at time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(SessionPrunePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionPrune, data, asynq.Queue(QueueDefault)), nil
}
