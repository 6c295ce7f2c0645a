package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"food-marketplace-api/apperr"
)

// isUniqueViolation recognises duplicate-key failures from either dialect,
// whether or not gorm translated them.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

// notFoundOr maps gorm.ErrRecordNotFound to a NotFound error and passes other errors through.
func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(format, args...)
	}
	return err
}

// likePattern builds a case-insensitive contains pattern for LOWER(col) LIKE ?.
func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
