package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindByCheckoutID(ctx context.Context, db *gorm.DB, checkoutRequestID string) (*Payment, error)
	// FinalizeByCheckoutID moves the payment holding the checkout request id
	// from Pending to the given terminal status, recording the callback
	// evidence. Returns the number of rows updated: zero means the row is
	// either absent or already finalized.
	FinalizeByCheckoutID(ctx context.Context, db *gorm.DB, checkoutRequestID string, status Status, resultCode int, resultDesc string, payload datatypes.JSON) (int64, error)
	List(ctx context.Context, db *gorm.DB) ([]Payment, error)
}
