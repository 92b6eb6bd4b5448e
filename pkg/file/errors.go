package file

import "errors"

var (
	ErrInvalidPath   = errors.New("invalid path") // Prevents path traversal attacks
	ErrInvalidConfig = errors.New("invalid configuration")

	// File system errors
	ErrFailedToReadFile        = errors.New("failed to read file")
	ErrFailedToWriteFile       = errors.New("failed to write file")
	ErrFailedToCreateDirectory = errors.New("failed to create directory")
	ErrFailedToGetAbsolutePath = errors.New("failed to get absolute path")

	// S3-specific errors for proper error classification
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrRequestTimeout     = errors.New("request timed out")
	ErrServiceUnavailable = errors.New("service temporarily unavailable") // Throttling
	ErrInvalidObjectState = errors.New("invalid object state")

	// Context and cancellation errors
	ErrOperationTimeout  = errors.New("operation timed out")
	ErrOperationCanceled = errors.New("operation canceled")

	ErrFailedToLoadConfig = errors.New("failed to load AWS config")
)
