package errors

import (
	"errors"
)

// As is a wrapper around errors.As for the coded Error type
func As(err error, target **Error) bool {
	return errors.As(err, target)
}

// Is reports whether err matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// GetCode extracts the error code from an error
func GetCode(err error) Code {
	if err == nil {
		return CodeOK
	}

	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}

	return CodeInternal
}

// GetMessage extracts the user-facing message from an error
func GetMessage(err error) string {
	if err == nil {
		return ""
	}

	var coded *Error
	if errors.As(err, &coded) {
		return coded.Message
	}

	return err.Error()
}

// IsNotFound reports whether the error is a not found error
func IsNotFound(err error) bool {
	return GetCode(err) == CodeNotFound
}

// IsInvalidArgument reports whether the error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return GetCode(err) == CodeInvalidArgument
}

// IsPermissionDenied reports whether the error is a permission denied error
func IsPermissionDenied(err error) bool {
	return GetCode(err) == CodePermissionDenied
}

// IsFailedPrecondition reports whether the error is a failed precondition error
func IsFailedPrecondition(err error) bool {
	return GetCode(err) == CodeFailedPrecondition
}

// IsAborted reports whether the error is an aborted error
func IsAborted(err error) bool {
	return GetCode(err) == CodeAborted
}

// IsInternal reports whether the error is an internal error
func IsInternal(err error) bool {
	return GetCode(err) == CodeInternal
}
