package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/postloom/postloom/internal/account"
	"github.com/postloom/postloom/internal/billingoverview"
	"github.com/postloom/postloom/internal/billingperiod"
	"github.com/postloom/postloom/internal/clock"
	"github.com/postloom/postloom/internal/config"
	"github.com/postloom/postloom/internal/entitlement"
	"github.com/postloom/postloom/internal/logger"
	"github.com/postloom/postloom/internal/metrics"
	"github.com/postloom/postloom/internal/migration"
	"github.com/postloom/postloom/internal/pricing"
	"github.com/postloom/postloom/internal/quota"
	"github.com/postloom/postloom/internal/scheduler"
	"github.com/postloom/postloom/internal/server"
	"github.com/postloom/postloom/internal/usage"
	"github.com/postloom/postloom/pkg/db"
	"github.com/postloom/postloom/pkg/redis"
	"go.uber.org/fx"
)

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func main() {
	fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		metrics.Module,
		db.Module,
		redis.Module,
		pricing.Module,
		migration.Module,

		fx.Provide(newSnowflakeNode),

		account.Module,
		billingperiod.Module,
		usage.Module,
		quota.Module,
		entitlement.Module,
		billingoverview.Module,
		scheduler.Module,
		server.Module,
	).Run()
}
