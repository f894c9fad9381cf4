package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/malipo/internal/payment/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (id, customer_id, service_id, amount, status, checkout_request_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.CustomerID,
		payment.ServiceID,
		payment.Amount,
		payment.Status,
		payment.CheckoutRequestID,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, service_id, amount, status, checkout_request_id,
			result_code, result_desc, callback_payload, created_at, updated_at
		 FROM payments WHERE id = ?`,
		id,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) FindByCheckoutID(ctx context.Context, db *gorm.DB, checkoutRequestID string) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, service_id, amount, status, checkout_request_id,
			result_code, result_desc, callback_payload, created_at, updated_at
		 FROM payments WHERE checkout_request_id = ?
		 LIMIT 1`,
		checkoutRequestID,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) FinalizeByCheckoutID(
	ctx context.Context,
	db *gorm.DB,
	checkoutRequestID string,
	status domain.Status,
	resultCode int,
	resultDesc string,
	payload datatypes.JSON,
) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET status = ?, result_code = ?, result_desc = ?, callback_payload = ?, updated_at = ?
		 WHERE checkout_request_id = ? AND status = ?`,
		status,
		resultCode,
		resultDesc,
		payload,
		time.Now().UTC(),
		checkoutRequestID,
		domain.StatusPending,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Order("created_at asc, id asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
