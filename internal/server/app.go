// Package server wires the CashbackHub development backend: configuration,
// the refresh token store, account services and the HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/cashbackhub/internal/logging"
	"github.com/dmitrijs2005/cashbackhub/internal/server/config"
	"github.com/dmitrijs2005/cashbackhub/internal/server/httpapi"
	"github.com/dmitrijs2005/cashbackhub/internal/server/refreshtokens"
	"github.com/dmitrijs2005/cashbackhub/internal/server/users"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	userService *users.Service
	server      *httpapi.Server
	closers     []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LoggingOptions())
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	app := &App{config: c, logger: logger}

	store, err := app.newRefreshStore(ctx)
	if err != nil {
		return nil, err
	}

	app.userService = users.NewService(users.NewMemoryRepository(), store, c, logger)

	if c.AdminEmail != "" && c.AdminPassword != "" {
		if err := app.userService.SeedAdmin(ctx, c.AdminEmail, c.AdminPassword); err != nil {
			app.close()
			return nil, fmt.Errorf("seed admin: %w", err)
		}
		logger.Info(ctx, "admin account ready", "email", c.AdminEmail)
	}

	app.server = httpapi.NewServer(c, logger, app.userService, store)
	return app, nil
}

func (app *App) newRefreshStore(ctx context.Context) (refreshtokens.Repository, error) {
	switch app.config.RefreshStore {
	case config.StoreMemory:
		return refreshtokens.NewMemoryRepository(), nil
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     app.config.RedisAddr,
			Password: app.config.RedisPassword,
			DB:       app.config.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.closers = append(app.closers, rdb.Close)
		app.logger.Info(ctx, "refresh tokens stored in redis", "addr", app.config.RedisAddr)
		return refreshtokens.NewRedisRepository(rdb), nil
	default:
		return nil, fmt.Errorf("unknown refresh store %q", app.config.RefreshStore)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)
	if cerr := app.close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	app.logger.Info(context.Background(), "App stopped")
	return err
}

func (app *App) close() error {
	var errs []error
	for _, c := range app.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
