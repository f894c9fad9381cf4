package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/malipo/internal/catalog"
	"github.com/smallbiznis/malipo/internal/config"
	"github.com/smallbiznis/malipo/internal/customer"
	"github.com/smallbiznis/malipo/internal/migration"
	obsmetrics "github.com/smallbiznis/malipo/internal/observability/metrics"
	"github.com/smallbiznis/malipo/internal/payment"
	"github.com/smallbiznis/malipo/internal/ratelimit"
	"github.com/smallbiznis/malipo/internal/server"
	"github.com/smallbiznis/malipo/pkg/db"
	"github.com/smallbiznis/malipo/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		obsmetrics.Module,
		ratelimit.Module,
		migration.Module,

		// Functional domains
		customer.Module,
		catalog.Module,
		payment.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
