// Package services holds the client's use cases on top of the backend
// gateway: loading the pending approval queue, approving documents, the
// operator session, and read-only reports. This file centralizes the
// service-level error values; backend failures are returned as gateway
// errors unchanged so callers can match them with errors.Is.
package services

import "errors"

// Approval errors.
var (
	// ErrBusy is returned when another approval is still in flight. No
	// request is sent.
	ErrBusy = errors.New("another approval is in progress")

	// ErrUnknownDocumentType is returned for a type outside import, invoice
	// and return.
	ErrUnknownDocumentType = errors.New("unknown document type")

	// ErrInvalidDocumentID is returned for non-positive document ids.
	ErrInvalidDocumentID = errors.New("document id must be positive")
)

// Session errors.
var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotLoggedIn        = errors.New("not logged in")

	// ErrProfileUnavailable is returned when /auth/me answers without success.
	ErrProfileUnavailable = errors.New("profile unavailable")

	// ErrInvalidPassword covers empty or unchanged new passwords.
	ErrInvalidPassword = errors.New("new password must be non-empty and differ from the old one")
)

// Report errors.
var (
	ErrUnknownReport       = errors.New("unknown report")
	ErrInvalidReportParams = errors.New("invalid report parameters")
)
