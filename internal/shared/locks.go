package shared

import "fmt"

// ClaimsRefreshLockKey builds redis keys guarding the per-course claims
// refresh so overlapping worker runs do not rewrite the same memberships.
func ClaimsRefreshLockKey(courseID string) string {
	return fmt.Sprintf("claims:course:%s:refresh", courseID)
}
