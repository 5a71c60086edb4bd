package analyses

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrApplicantRequired  = errors.New("applicantId is required")
	ErrQueueNotConfigured = errors.New("job queue not configured")
)
