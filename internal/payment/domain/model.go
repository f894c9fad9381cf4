package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the lifecycle state of a payment attempt. A row starts Pending
// and is finalized exactly once by the gateway callback.
type Status string

const (
	StatusPending Status = "Pending"
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
)

func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Payment is the append-only record of one accepted push request. Rows are
// created only after the gateway accepted the request, so CheckoutRequestID
// is always set and unique.
type Payment struct {
	ID                snowflake.ID   `gorm:"primaryKey" json:"id"`
	CustomerID        snowflake.ID   `gorm:"not null;index" json:"customer_id"`
	ServiceID         *snowflake.ID  `json:"service_id,omitempty"`
	Amount            float64        `gorm:"not null" json:"amount"`
	Status            Status         `gorm:"type:text;not null;default:'Pending'" json:"status"`
	CheckoutRequestID string         `gorm:"uniqueIndex;not null" json:"checkout_request_id"`
	ResultCode        *int           `json:"result_code,omitempty"`
	ResultDesc        string         `json:"result_desc,omitempty"`
	CallbackPayload   datatypes.JSON `gorm:"type:jsonb" json:"-"`
	CreatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

var (
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrInvalidPhone  = errors.New("invalid_phone")
	ErrInvalidID     = errors.New("invalid_id")
	ErrNotFound      = errors.New("not_found")
)
