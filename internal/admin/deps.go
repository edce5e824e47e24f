package admin

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/livedesk/internal/cryptox"
	"github.com/dmitrijs2005/livedesk/internal/dbx"
	"github.com/dmitrijs2005/livedesk/internal/logging"
	"github.com/dmitrijs2005/livedesk/internal/server/config"
	"github.com/dmitrijs2005/livedesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/livedesk/internal/server/repositories/secretconfig"
	"github.com/dmitrijs2005/livedesk/internal/server/services"
)

// SecretStore is implemented by services.SecretConfigService.
type SecretStore interface {
	Set(ctx context.Context, key, value string, sealed bool, description string) error
	GetStrict(ctx context.Context, key string) (string, error)
	ListAll(ctx context.Context) ([]services.EntryInfo, error)
	Delete(ctx context.Context, key string) error
}

// Migrator applies and reverts schema migrations.
type Migrator interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
}

// Deps is what the storage-backed commands work with. Close releases the
// underlying connections.
type Deps struct {
	Secrets  SecretStore
	Migrator Migrator
	Close    func() error
}

// Connector builds Deps for a configuration.
type Connector func(ctx context.Context, cfg *config.Config) (*Deps, error)

type pgMigrator struct {
	rm *repomanager.PostgresRepositoryManager
	db *sql.DB
}

func (m pgMigrator) Up(ctx context.Context) error   { return m.rm.RunMigrations(ctx, m.db) }
func (m pgMigrator) Down(ctx context.Context) error { return m.rm.RollbackMigration(ctx, m.db) }

// Seams for tests.
var (
	openDB      = dbx.Open
	newS3Client = func(ctx context.Context, o secretconfig.S3Options) (secretconfig.ObjectAPI, error) {
		return secretconfig.NewS3Client(ctx, o)
	}
)

// DefaultConnector connects to the configured database and secret backend.
// Only the master key is required; livectl never signs tokens.
func DefaultConnector(ctx context.Context, cfg *config.Config) (*Deps, error) {
	if cfg.MasterKey == "" {
		return nil, fmt.Errorf("master encryption key: set LIVEDESK_MASTER_KEY (see livectl genkey)")
	}
	sealer, err := cryptox.NewEngine(cfg.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}

	db, err := openDB(ctx, "pgx", cfg.DatabaseDSN, dbx.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	repo := rm.SecretConfig(db)
	if cfg.SecretBackend == config.BackendS3 {
		api, err := newS3Client(ctx, secretconfig.S3Options{
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		repo = secretconfig.NewS3Repository(api, cfg.S3Bucket, cfg.S3Prefix, logging.Nop())
	}

	return &Deps{
		Secrets: services.NewSecretConfigService(repo, sealer, nil, logging.Nop(),
			services.WithWriteTimeout(cfg.DatabaseQueryTimeout)),
		Migrator: pgMigrator{rm: rm, db: db},
		Close:    db.Close,
	}, nil
}
