// Package app assembles services, transport and infrastructure from config.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"food-marketplace-api/auth"
	"food-marketplace-api/config"
	"food-marketplace-api/handlers"
	"food-marketplace-api/logger"
	"food-marketplace-api/middleware"
	"food-marketplace-api/notify"
	"food-marketplace-api/routes"
	"food-marketplace-api/services"
)

// App is a fully wired API instance.
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	Router      *gin.Engine
	Tokens      *auth.TokenManager
	Revoker     auth.Revoker
	Provisioner *services.ProfileProvisioner
	Accounts    *services.AccountService
	Catalog     *services.CatalogService
	Carts       *services.CartService
	Orders      *services.OrderService

	log     *logger.Logger
	closers []func() error
}

// New opens the configured database and wires everything on top of it.
func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := config.OpenDB(cfg.DB)
	if err != nil {
		return nil, err
	}
	a := NewWithDB(cfg, db, log)
	a.closers = append(a.closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	return a, nil
}

// NewWithDB wires the application around an existing connection.
func NewWithDB(cfg *config.Config, db *gorm.DB, log *logger.Logger) *App {
	a := &App{Config: cfg, DB: db, log: log}

	a.Tokens = auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.Expiration)*time.Minute, cfg.JWT.Issuer)
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		a.Revoker = auth.NewRedisRevoker(client)
		a.closers = append(a.closers, client.Close)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("token revocation stored in redis")
	} else {
		a.Revoker = auth.NewGormRevoker(db)
	}

	var mailer notify.Mailer = notify.NewLogMailer(log.Component("mail"))
	if cfg.SMTP.Enabled() {
		mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host: cfg.SMTP.Host, Port: cfg.SMTP.Port, User: cfg.SMTP.User, Password: cfg.SMTP.Password, From: cfg.SMTP.From,
		})
	}
	var publisher notify.Publisher = notify.NopPublisher{}
	if cfg.Kafka.Enabled() {
		publisher = notify.NewKafkaPublisher(notify.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		a.closers = append(a.closers, publisher.Close)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("order events published to kafka")
	}
	dispatcher := notify.NewDispatcher(mailer, publisher, cfg.App.FrontendURL, log.Component("notify"))

	a.Provisioner = services.NewProfileProvisioner()
	a.Accounts = services.NewAccountService(db, a.Tokens, a.Revoker, a.Provisioner, dispatcher, log.Component("accounts"))
	a.Catalog = services.NewCatalogService(db, log.Component("catalog"))
	a.Carts = services.NewCartService(db, log.Component("cart"))
	a.Orders = services.NewOrderService(db,
		services.Pricing{DeliveryFee: cfg.Pricing.DeliveryFee, TaxRate: cfg.Pricing.TaxRate},
		dispatcher,
		log.Component("orders"),
		services.WithOrderNumberAttempts(cfg.Pricing.OrderNumberAttempts),
	)

	h := handlers.New(a.Accounts, a.Catalog, a.Carts, a.Orders, log.Component("http"))
	r := gin.New()
	r.Use(middleware.RequestLogger(log.Component("http")), middleware.Recovery(log.Zerolog()), middleware.CORS())
	routes.SetupRoutes(r, h, middleware.AuthRequired(a.Tokens, a.Revoker))
	a.Router = r
	return a
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.HTTP.Addr(),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases connections opened by New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
