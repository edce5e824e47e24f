// Package server wires configuration, storage backends, services and the
// gRPC endpoint into a runnable process and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/livedesk/internal/cryptox"
	"github.com/dmitrijs2005/livedesk/internal/dbx"
	"github.com/dmitrijs2005/livedesk/internal/logging"
	"github.com/dmitrijs2005/livedesk/internal/server/auth"
	"github.com/dmitrijs2005/livedesk/internal/server/config"
	"github.com/dmitrijs2005/livedesk/internal/server/jobs"
	"github.com/dmitrijs2005/livedesk/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/livedesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/livedesk/internal/server/repositories/secretconfig"
	"github.com/dmitrijs2005/livedesk/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/livedesk/internal/server/grpc"
)

// SecretEnvPrefix is prepended to secret config keys when they fall back to
// the process environment.
const SecretEnvPrefix = "LIVEDESK_CFG_"

// Seams for tests.
var (
	openDB      = dbx.Open
	newS3Client = func(ctx context.Context, o secretconfig.S3Options) (secretconfig.ObjectAPI, error) {
		return secretconfig.NewS3Client(ctx, o)
	}
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	closers []io.Closer

	tokens   *services.RefreshTokenStore
	sessions *services.SessionService
	users    *services.UserService
	secrets  *services.SecretConfigService
}

// NewApp validates c, connects to storage, applies migrations and builds
// every service. Resources opened before a failure are released.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (app *App, err error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Format(c.LogFormat), w, c.Debug)
	if err != nil {
		return nil, err
	}

	app = &App{config: c, logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close()
			app = nil
		}
	}()

	sealer, err := cryptox.NewEngine(c.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}
	codec, err := auth.NewCodec(c.SecretKey, c.AccessTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	db, err := openDB(ctx, "pgx", c.DatabaseDSN, dbx.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.closers = append(app.closers, db)

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	tokenRepo, err := app.tokenRepository(ctx, rm, db)
	if err != nil {
		return nil, err
	}
	secretRepo, err := app.secretRepository(ctx, rm, db)
	if err != nil {
		return nil, err
	}

	app.tokens = services.NewRefreshTokenStore(tokenRepo, c.RefreshTokenValidityDuration)
	app.sessions = services.NewSessionService(codec, app.tokens, logger)
	app.users, err = services.NewUserService(rm.Users(db), app.sessions, logger)
	if err != nil {
		return nil, err
	}
	app.secrets = services.NewSecretConfigService(secretRepo, sealer, secretBaseSource(), logger,
		services.WithWriteTimeout(c.DatabaseQueryTimeout))

	return app, nil
}

func secretBaseSource() services.EnvSource {
	return services.EnvSource{Prefix: SecretEnvPrefix, Reserved: config.EnvNames()}
}

func (app *App) tokenRepository(ctx context.Context, rm repomanager.RepositoryManager, db *sql.DB) (refreshtokens.Repository, error) {
	switch app.config.TokenBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     app.config.RedisAddr,
			Password: app.config.RedisPassword,
			DB:       app.config.RedisDB,
		})
		app.closers = append(app.closers, rdb)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		return refreshtokens.NewRedisRepository(rdb, ""), nil
	default:
		return rm.RefreshTokens(db), nil
	}
}

func (app *App) secretRepository(ctx context.Context, rm repomanager.RepositoryManager, db *sql.DB) (secretconfig.Repository, error) {
	switch app.config.SecretBackend {
	case config.BackendS3:
		api, err := newS3Client(ctx, secretconfig.S3Options{
			Region:       app.config.S3Region,
			AccessKey:    app.config.S3RootUser,
			SecretKey:    app.config.S3RootPassword,
			BaseEndpoint: app.config.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		return secretconfig.NewS3Repository(api, app.config.S3Bucket, app.config.S3Prefix, app.logger), nil
	default:
		return rm.SecretConfig(db), nil
	}
}

// Close releases storage connections.
func (app *App) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		errs = append(errs, app.closers[i].Close())
	}
	app.closers = nil
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

// Run loads secret configuration, starts the cleanup job and serves gRPC
// until ctx is canceled, a termination signal arrives or the server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	if err := app.secrets.Load(ctx); err != nil {
		app.logger.Warn(ctx, "secret config not loaded, serving from base configuration", "error", err)
	}

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		jobs.NewTokenCleanup(app.tokens, app.config.TokenCleanupInterval, app.logger).Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.users, app.sessions, app.config.DatabaseQueryTimeout)
		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, "gRPC server failed", "error", err)
			runErr = err
			cancelFunc()
		}
	}()

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return runErr
}
