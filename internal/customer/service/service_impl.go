package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/malipo/internal/customer/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) FindOrCreate(ctx context.Context, req domain.FindOrCreateRequest) (domain.Customer, error) {
	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		return domain.Customer{}, err
	}

	name := strings.TrimSpace(req.DefaultName)
	if name == "" {
		name = "Customer"
	}

	now := time.Now().UTC()
	candidate := domain.Customer{
		ID:        s.genID.Generate(),
		Name:      name,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Insert-or-ignore then read back. The unique constraint on phone picks
	// a single winner when two submissions race on the same number.
	if err := s.repo.InsertIgnore(ctx, s.db, &candidate); err != nil {
		return domain.Customer{}, err
	}

	existing, err := s.repo.FindByPhone(ctx, s.db, phone)
	if err != nil {
		return domain.Customer{}, err
	}
	if existing == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	if existing.ID != candidate.ID {
		s.log.Debug("customer already known", zap.Int64("customer_id", int64(existing.ID)))
	}

	return *existing, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.List(ctx, s.db)
}

// NormalizePhone trims the number and rejects anything that is not a plain
// MSISDN, e.g. 254712345678.
func NormalizePhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	phone = strings.TrimPrefix(phone, "+")
	if len(phone) < 9 || len(phone) > 15 {
		return "", domain.ErrInvalidPhone
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return "", domain.ErrInvalidPhone
		}
	}
	return phone, nil
}
