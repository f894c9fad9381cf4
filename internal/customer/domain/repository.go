package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// InsertIgnore inserts the customer unless a row with the same phone
	// already exists. Safe to race: the unique constraint on phone decides.
	InsertIgnore(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByPhone(ctx context.Context, db *gorm.DB, phone string) (*Customer, error)
	List(ctx context.Context, db *gorm.DB) ([]Customer, error)
}
