package service

import "errors"

var (
	ErrNoCandidateEndpoint = errors.New("no candidate endpoint returned posts")
	ErrInvalidDateRange    = errors.New("invalid date range")
	ErrNoPlatforms         = errors.New("no platforms selected")
	ErrEmptyText           = errors.New("post text is empty")
	ErrSubmissionNotFound  = errors.New("submission not found")
)
