package payment

import (
	"github.com/smallbiznis/malipo/internal/config"
	paymentdomain "github.com/smallbiznis/malipo/internal/payment/domain"
	"github.com/smallbiznis/malipo/internal/payment/gateway/daraja"
	"github.com/smallbiznis/malipo/internal/payment/repository"
	paymentservice "github.com/smallbiznis/malipo/internal/payment/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config, log *zap.Logger) paymentdomain.Gateway {
		return daraja.New(cfg.Daraja, log)
	}),
	fx.Provide(paymentservice.New),
)
