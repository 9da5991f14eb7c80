package repository

import (
	"errors"
	"fmt"

	"github.com/nimasrn/invite-gateway/internal/model"
	"gorm.io/gorm"
)

var (
	ErrPurchaseNotFound   = fmt.Errorf("purchase %w", model.ErrNotFound)
	ErrTableNotFound      = fmt.Errorf("table %w", model.ErrNotFound)
	ErrVendorNotFound     = fmt.Errorf("vendor %w", model.ErrNotFound)
	ErrTableUnavailable   = fmt.Errorf("%w: table no longer available", model.ErrConflict)
	ErrDuplicateReference = fmt.Errorf("%w: external_reference already exists", model.ErrConflict)
)

// persistErr tags a storage failure with ErrPersistence while keeping the
// driver error reachable through errors.Is/As.
func persistErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrPersistence, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
