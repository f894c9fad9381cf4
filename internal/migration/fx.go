package migration

import (
	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/malipo/internal/catalog/domain"
	"github.com/smallbiznis/malipo/internal/config"
	customerdomain "github.com/smallbiznis/malipo/internal/customer/domain"
	paymentdomain "github.com/smallbiznis/malipo/internal/payment/domain"
	"github.com/smallbiznis/malipo/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, genID *snowflake.Node) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := conn.AutoMigrate(
				&customerdomain.Customer{},
				&catalogdomain.Service{},
				&paymentdomain.Payment{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedServices {
			return seed.EnsureDefaultServices(conn, genID)
		}
		return nil
	}),
)
