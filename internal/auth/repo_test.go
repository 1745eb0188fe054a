package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	_ "github.com/lumina-lms/lumina-lms/testing"
)

func TestSessionInsertColumnsMatchSchema(t *testing.T) {
	// Column list mirrors the sessions table created by scripts/seed.
	assert.Contains(t, insertSessionSQL, "(id, user_id, created_at, expires_at, ip, user_agent)")
	assert.NotContains(t, insertSessionSQL, " ua", "column is named user_agent")
	assert.NotContains(t, insertSessionSQL, "NULLIF", "ip and user_agent are NOT NULL, empty strings pass through")
	assert.Equal(t, 5, strings.Count(insertSessionSQL, "$"), "created_at comes from NOW()")
}
