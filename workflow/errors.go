package workflow

import (
	"errors"

	"bitbucket.org/mmdatafocus/production_backend/models"
)

// Validation and not-found errors. All of them are returned before any counter changes.
var (
	ErrArticleNotFound           = errors.New("article not found")
	ErrUnknownFloor              = errors.New("floor is not part of the article's floor sequence")
	ErrInvalidQuantity           = errors.New("quantity must be positive")
	ErrExceedsReceived           = errors.New("completed quantity would exceed received quantity")
	ErrFloorNotReachable         = errors.New("floor is ahead of the article's current floor and has no work")
	ErrNoCompletedWork           = errors.New("floor has no completed work to transfer")
	ErrNoNextFloor               = errors.New("floor is the last floor of the sequence")
	ErrNoInspectionWorkAvailable = errors.New("no inspection floor has received work")
	ErrInvalidTargetFloor        = errors.New("invalid target floor")
	ErrInvalidRepairSource       = errors.New("repair source must be an inspection floor of the article")
	ErrInvalidRepairQuantity     = errors.New("repair quantity must be between 1 and the floor's M2 quantity")

	ErrConcurrentModification = models.ErrVersionConflict
)

// AuditError means the state change was persisted but its ledger entries were not written.
type AuditError struct {
	Err error
}

func (e *AuditError) Error() string {
	return "audit log write failed: " + e.Err.Error()
}

func (e *AuditError) Unwrap() error {
	return e.Err
}

// IsAuditWarning reports whether err only signals an audit failure.
func IsAuditWarning(err error) bool {
	var ae *AuditError
	return errors.As(err, &ae)
}

// IsValidationError reports whether err is one of the caller-input errors above.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrUnknownFloor, ErrInvalidQuantity, ErrExceedsReceived, ErrFloorNotReachable,
		ErrNoCompletedWork, ErrNoNextFloor, ErrNoInspectionWorkAvailable, ErrInvalidTargetFloor,
		ErrInvalidRepairSource, ErrInvalidRepairQuantity, models.ErrUnknownFloorName,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
