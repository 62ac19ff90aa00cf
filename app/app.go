// Package app wires configuration, storage and services into a gin engine.
// It is shared by the serve command and the serverless handler.
package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"order-desk/config"
	"order-desk/libs"
	"order-desk/logger"
	"order-desk/middleware"
	"order-desk/repositories"
	"order-desk/routes"
	"order-desk/services"
	"order-desk/utils"
)

type App struct {
	Engine *gin.Engine
	Config *config.Config

	store  *repositories.Store
	redis  *redis.Client
	mailer *libs.Mailer
}

// New opens the configured store and redis, then builds the engine.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := repositories.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Build(cfg, store, config.ConnectRedis(ctx, cfg)), nil
}

// Build assembles services and routes over an already opened store. rdb may
// be nil, which disables logout revocation and login rate limiting.
func Build(cfg *config.Config, store *repositories.Store, rdb *redis.Client) *App {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	a := &App{Config: cfg, store: store, redis: rdb}

	var notifier services.Notifier = services.NopNotifier{}
	if cfg.SMTPEnabled() {
		mailer, err := libs.NewMailer(cfg)
		if err != nil {
			logger.L.Warn("email notifications disabled", "error", err)
		} else {
			a.mailer = mailer
			notifier = mailer
		}
	}

	authOpts := []services.AuthOption{
		services.WithNotifier(notifier),
		services.WithAdminSignup(cfg.AllowAdminSignup),
	}
	if rdb != nil {
		authOpts = append(authOpts, services.WithDenylist(repositories.NewRedisTokenDenylist(rdb)))
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	deps := routes.Dependencies{
		Auth:           services.NewAuthService(store.Users, tokens, authOpts...),
		Users:          services.NewUserService(store.Users),
		Orders:         services.NewOrderService(store.Orders, store.Users, notifier),
		Redis:          rdb,
		LoginRateLimit: cfg.LoginRateLimit,
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.Recovery(),
		middleware.CORSMiddleware(cfg.OriginURL),
	)
	routes.SetupRoutes(router, deps)

	a.Engine = router
	return a
}

// Close waits for queued e-mails and releases connections.
func (a *App) Close() {
	if a.mailer != nil {
		a.mailer.Wait()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}
