package domain

import (
	"context"
	"errors"
	"fmt"
)

// PushOutcome is the gateway's acceptance of a push request. The
// CheckoutRequestID correlates the eventual asynchronous callback with the
// payment row persisted here.
type PushOutcome struct {
	MerchantRequestID   string
	CheckoutRequestID   string
	ResponseDescription string
	CustomerMessage     string
}

// Gateway initiates a push payment on the payer's device.
//
// The three outcomes are kept apart: acceptance returns a PushOutcome, an
// explicit decline returns *RejectedError, and network or protocol failures
// return an error wrapping ErrGatewayUnavailable (eligible for retry by the
// caller; a decline is not).
type Gateway interface {
	RequestPush(ctx context.Context, phone string, amount float64) (*PushOutcome, error)
}

// ErrGatewayUnavailable marks transport-level failures of the outbound call.
var ErrGatewayUnavailable = errors.New("gateway_unavailable")

// RejectedError is a business decline from the gateway, not a bug.
type RejectedError struct {
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("gateway rejected request: %s", e.Message)
	}
	return fmt.Sprintf("gateway rejected request (%s): %s", e.Code, e.Message)
}
