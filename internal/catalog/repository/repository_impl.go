package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/malipo/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Service, error) {
	var svc domain.Service
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, price, created_at
		 FROM services WHERE id = ?`,
		id,
	).Scan(&svc).Error
	if err != nil {
		return nil, err
	}
	if svc.ID == 0 {
		return nil, nil
	}
	return &svc, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Service, error) {
	var services []domain.Service
	err := db.WithContext(ctx).
		Model(&domain.Service{}).
		Order("created_at asc, id asc").
		Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}
