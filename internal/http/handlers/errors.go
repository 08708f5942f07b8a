package handlers

// Error codes sent in ErrorResponse.Code. Clients branch on these, so they
// never change once published. The generic ones follow the HTTP status; the
// rest name a failure the status alone cannot convey, mostly a classified
// warehouse backend error (see failErr).

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeInternal     = "internal_error"

	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeBusy               = "approval_in_progress"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeSessionExpired     = "session_expired"
	ErrCodeBackendError       = "backend_error"        // backend answered non-2xx
	ErrCodeBackendUnavailable = "backend_unavailable"  // no response (network, timeout)
	ErrCodeBadBackendResponse = "bad_backend_response" // undecodable reply
	ErrCodeExportFailed       = "export_failed"
	ErrCodeListFailed         = "list_failed"
	ErrCodeAuditDisabled      = "audit_disabled"
)
