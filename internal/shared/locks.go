package shared

import "fmt"

// DecisionLockKey builds the redis key guarding approve/reject of one request.
func DecisionLockKey(requestID int64) string {
	return fmt.Sprintf("spare-request:%d:decision", requestID)
}
