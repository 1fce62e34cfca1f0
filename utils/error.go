package utils

import (
	"errors"

	"gorm.io/gorm"
)

var ErrorRecordNotFound = errors.New("record not found")

// NotFoundOr maps gorm's not-found error onto ErrorRecordNotFound and passes everything else through.
func NotFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorRecordNotFound
	}
	return err
}
