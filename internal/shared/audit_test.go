package shared

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/lumina-lms/lumina-lms/testing"
)

func TestAuditInsertColumnsMatchSchema(t *testing.T) {
	// Column list mirrors the audit_logs table created by scripts/seed.
	assert.Contains(t, insertAuditSQL, "(actor_id, action, entity, entity_id, meta, occurred_at)")
	assert.NotContains(t, insertAuditSQL, "event", "audit_logs carries no event column")
	assert.NotContains(t, insertAuditSQL, "created_at")
	assert.Equal(t, 6, strings.Count(insertAuditSQL, "$"), "one placeholder per column")
}

func TestAuditInsertArgsZeroTimeBecomesNull(t *testing.T) {
	args, err := auditInsertArgs(AuditLog{
		ActorID: "u1",
		Action:  "authz.denied",
		Entity:  "course",
		Meta:    map[string]any{"attempted_action": "update"},
	})
	require.NoError(t, err)
	require.Len(t, args, 6)

	at, ok := args[5].(*time.Time)
	require.True(t, ok)
	assert.Nil(t, at, "unset timestamp defers to the database clock")

	meta, ok := args[4].([]byte)
	require.True(t, ok)
	assert.JSONEq(t, `{"attempted_action":"update"}`, string(meta))
}

func TestAuditInsertArgsKeepsExplicitTime(t *testing.T) {
	when := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	args, err := auditInsertArgs(AuditLog{ActorID: "u1", Action: "course.create", Entity: "course", At: when})
	require.NoError(t, err)

	at, ok := args[5].(*time.Time)
	require.True(t, ok)
	require.NotNil(t, at)
	assert.Equal(t, when, *at)
}
