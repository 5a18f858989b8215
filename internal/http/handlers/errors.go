// Package handlers defines the HTTP-layer error codes used across all API
// endpoints. Codes are lowercase snake_case; generic ones mirror HTTP status
// semantics, domain-specific ones cover business failures a status alone
// cannot convey. Handlers pick the most specific code and pass it to fail().
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeSubmitFailed  = "submit_failed"
	ErrCodeListFailed    = "list_failed"
	ErrCodeDrainFailed   = "drain_failed"
	ErrCodeCleanupFailed = "cleanup_failed"
	ErrCodeRollupFailed  = "rollup_failed"
	ErrCodeAIOffline     = "ai_offline"
)
