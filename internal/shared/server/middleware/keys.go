package middleware

// Context keys handlers set for request logging.
const (
	SessionIDKey        = "sessionId"
	FindingIndexKey     = "findingIndex"
	StatusTransitionKey = "statusTransition"
)
