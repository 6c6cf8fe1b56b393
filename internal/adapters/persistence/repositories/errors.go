package repositories

import (
	"errors"
	"strings"

	"emergency-fund/internal/core/domain"

	"gorm.io/gorm"
)

// wrapErr maps a gorm error onto the domain error kinds. entity and id name
// the row for not-found errors.
func wrapErr(op, entity, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFound(entity, id)
	case isDuplicate(err):
		return domain.ErrDuplicateID
	default:
		return domain.Store(op, err)
	}
}

// isDuplicate reports a unique-key violation. Drivers without error
// translation are matched on their message.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
