// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Map converts repo/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, gorm.ErrDuplicatedKey) || IsDuplicateKey(err):
		return status.Error(codes.AlreadyExists, "duplicate record")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// IsDuplicateKey reports whether err is a unique-constraint violation. Not
// every driver surfaces gorm.ErrDuplicatedKey, so the raw message is checked
// for the MySQL and SQLite phrasings as well. Award idempotency leans on
// this: a racing duplicate insert degrades to "already awarded".
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || // MySQL 1062
		strings.Contains(msg, "UNIQUE constraint failed") // SQLite
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// AlreadyExists creates a gRPC AlreadyExists error.
func AlreadyExists(msg string) error {
	return status.Error(codes.AlreadyExists, msg)
}
