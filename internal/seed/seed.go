package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/malipo/internal/catalog/domain"
	"gorm.io/gorm"
)

var defaultServices = []struct {
	Name  string
	Price float64
}{
	{Name: "Consultation", Price: 500},
	{Name: "Installation", Price: 1500},
	{Name: "Monthly Subscription", Price: 2999},
}

// EnsureDefaultServices seeds a starter service catalog for local and
// self-hosted setups. A non-empty catalog is left untouched.
func EnsureDefaultServices(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&catalogdomain.Service{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		for _, svc := range defaultServices {
			if err := tx.Create(&catalogdomain.Service{
				ID:        node.Generate(),
				Name:      svc.Name,
				Price:     svc.Price,
				CreatedAt: now,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
