package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type SubmitPaymentRequest struct {
	Phone     string
	Amount    float64
	ServiceID *snowflake.ID
}

type SubmitPaymentResponse struct {
	PaymentID         snowflake.ID `json:"payment_id"`
	CustomerID        snowflake.ID `json:"customer_id"`
	CheckoutRequestID string       `json:"checkout_request_id"`
	Status            Status       `json:"payment_status"`
}

// CallbackEvent is the normalized result of one gateway callback delivery.
// Result code zero means the payer authorized the payment.
type CallbackEvent struct {
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string
	RawPayload        []byte
}

type Service interface {
	Submit(ctx context.Context, req SubmitPaymentRequest) (SubmitPaymentResponse, error)
	// HandleCallback finalizes the payment the callback correlates to.
	// Unknown checkout request ids and repeat deliveries are no-ops.
	HandleCallback(ctx context.Context, event CallbackEvent) error
	List(ctx context.Context) ([]Payment, error)
	GetByID(ctx context.Context, id string) (Payment, error)
}
