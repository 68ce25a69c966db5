// Package server exposes the billing core over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/postloom/postloom/internal/account/domain"
	overviewdomain "github.com/postloom/postloom/internal/billingoverview/domain"
	perioddomain "github.com/postloom/postloom/internal/billingperiod/domain"
	"github.com/postloom/postloom/internal/clock"
	"github.com/postloom/postloom/internal/config"
	entitlementdomain "github.com/postloom/postloom/internal/entitlement/domain"
	"github.com/postloom/postloom/internal/pricing"
	usagedomain "github.com/postloom/postloom/internal/usage/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServerParams struct {
	fx.In

	Config         config.Config
	Log            *zap.Logger
	Clock          clock.Clock
	Pricing        *pricing.Holder
	AccountSvc     accountdomain.Service
	PeriodSvc      perioddomain.Service
	UsageSvc       usagedomain.Service
	EntitlementSvc entitlementdomain.Service
	OverviewSvc    overviewdomain.Service
}

type Server struct {
	log    *zap.Logger
	server *http.Server
}

// NewEngine assembles the router. Kept separate from lifecycle wiring so
// handler tests can drive it with httptest.
func NewEngine(p ServerParams) *gin.Engine {
	if p.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(ErrorHandlingMiddleware(p.Log))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	usage := &UsageHandler{clock: p.Clock, usageSvc: p.UsageSvc, periodSvc: p.PeriodSvc}
	billing := &BillingHandler{overviewSvc: p.OverviewSvc, pricing: p.Pricing}
	entitlement := &EntitlementHandler{entitlementSvc: p.EntitlementSvc}
	account := &AccountHandler{accountSvc: p.AccountSvc, pricing: p.Pricing}

	v1 := engine.Group("/v1")
	v1.GET("/pricing", account.catalog)

	authed := v1.Group("")
	authed.Use(RequireUserID())
	{
		authed.POST("/usage", usage.record)
		authed.GET("/usage", usage.list)
		authed.GET("/usage/summary", usage.summary)

		authed.GET("/billing/current", billing.current)
		authed.GET("/billing/history", billing.history)
		authed.POST("/billing/estimate", billing.estimate)

		authed.GET("/entitlements/:feature", entitlement.check)

		authed.GET("/account", account.get)
		authed.PUT("/account", account.upsert)
	}

	return engine
}

func NewServer(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) *Server {
	s := &Server{
		log: log.Named("server"),
		server: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: engine,
		},
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				s.log.Info("http server listening", zap.String("addr", s.server.Addr))
				if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return s.server.Shutdown(ctx)
		},
	})

	return s
}

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
)
