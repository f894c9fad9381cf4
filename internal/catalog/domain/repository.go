package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// FindByID returns nil when no service has the id.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Service, error)
	List(ctx context.Context, db *gorm.DB) ([]Service, error)
}
