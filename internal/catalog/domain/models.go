package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Service is a billable offering with a fixed price. The catalog is managed
// out of band; this backend only reads it.
type Service struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Price     float64      `gorm:"not null" json:"price"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Service) TableName() string { return "services" }

var (
	ErrInvalidID = errors.New("invalid_id")
	ErrNotFound  = errors.New("not_found")
)
