package domain

import (
	"context"
	"errors"
)

type FindOrCreateRequest struct {
	Phone       string
	DefaultName string
}

type Service interface {
	// FindOrCreate resolves the customer owning the phone number, creating
	// one with the default name on first sight. Exactly one customer per
	// phone is guaranteed, including under concurrent calls.
	FindOrCreate(ctx context.Context, req FindOrCreateRequest) (Customer, error)
	List(ctx context.Context) ([]Customer, error)
}

var (
	ErrInvalidPhone = errors.New("invalid_phone")
	ErrNotFound     = errors.New("not_found")
)
