package repository

import (
	"context"

	"gorm.io/gorm"
)

// Transactor hands out database handles to usecases. Repositories receive
// the handle explicitly so a single operation can span several of them.
type Transactor interface {
	DB(ctx context.Context) *gorm.DB
	WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}
