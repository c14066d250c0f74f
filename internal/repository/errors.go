package repository

import (
	"errors"

	"gorm.io/gorm"
)

// IsDuplicate reports whether err is a primary key or unique index
// violation. It relies on the handle being opened with TranslateError.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
