// Package server wires the cityfix components together and runs them until
// the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/cityfix/internal/logging"
	"github.com/dmitrijs2005/cityfix/internal/server/api"
	"github.com/dmitrijs2005/cityfix/internal/server/auth"
	"github.com/dmitrijs2005/cityfix/internal/server/classify"
	"github.com/dmitrijs2005/cityfix/internal/server/config"
	"github.com/dmitrijs2005/cityfix/internal/server/events"
	"github.com/dmitrijs2005/cityfix/internal/server/images"
	"github.com/dmitrijs2005/cityfix/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cityfix/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/cityfix/internal/server/grpc"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client

	handler *api.Handler
	health  *gs.GRPCServer
}

// OpenDB opens the pgx pool for dsn and checks it is reachable.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogLevel, c.LogFormat)

	db, err := OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	app := &App{config: c, logger: logger, db: db}

	var publisher events.Publisher = events.Nop{}
	if c.RedisAddr != "" {
		client, err := events.NewRedisClient(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.redis = client
		publisher = events.NewRedisPublisher(client, c.EventsQueue)
	} else {
		logger.Info(ctx, "redis address not set, status events are not published")
	}

	var store images.Store
	if c.S3Bucket != "" {
		s3, err := images.NewS3Store(ctx, images.Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		store = s3
	} else {
		logger.Info(ctx, "s3 bucket not set, image uploads are disabled")
	}

	algorithm, err := auth.ParseAlgorithm(c.PasswordAlgorithm)
	if err != nil {
		app.Close()
		return nil, err
	}
	hasher := auth.NewPasswordHasher(algorithm)
	tokens := auth.NewTokenService([]byte(c.SecretKey), c.AccessTokenTTL, auth.WithTokenLogger(logger))

	us := services.NewUserService(db, rm, hasher, tokens, logger)
	is := services.NewIssueService(db, rm, services.NewAuditTrail(db, rm), publisher, logger)
	ims := services.NewImageService(store, c.ImageMaxBytes)
	classifier := classify.NewRuleBased(classify.NewKeywordModel(nil))

	app.handler = api.NewHandler(us, is, ims, classifier, logger)

	if c.GRPCHealthAddr != "" {
		app.health = gs.NewGRPCServer(c.GRPCHealthAddr, logger, 10*time.Second)
		app.health.AddCheck("postgres", db.PingContext)
		if app.redis != nil {
			app.health.AddCheck("redis", func(ctx context.Context) error {
				return app.redis.Ping(ctx).Err()
			})
		}
	}

	return app, nil
}

// Close releases the database pool and the redis client.
func (app *App) Close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			app.logger.Error(sctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.health != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(context.Background(), "close resources", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
