package pricing

import (
	"github.com/postloom/postloom/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewHolderFromConfig(cfg config.Config, log *zap.Logger) (*Holder, error) {
	return NewHolder(cfg.PricingConfigPaths, log.Named("pricing"))
}

// Module provides the hot-reloadable pricing catalog.
var Module = fx.Module("pricing",
	fx.Provide(NewHolderFromConfig),
)
