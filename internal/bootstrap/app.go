package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"docdash-backend/internal/documents"
	"docdash-backend/internal/processing"
	"docdash-backend/internal/services/health"
	"docdash-backend/internal/shared/auth"
	"docdash-backend/internal/shared/config"
	"docdash-backend/internal/shared/server"
	"docdash-backend/internal/shared/server/middleware"
	"docdash-backend/internal/shared/storage/cache"
	"docdash-backend/internal/shared/storage/db"
	"docdash-backend/internal/shared/storage/object"
	localstore "docdash-backend/internal/shared/storage/object/local"
	s3store "docdash-backend/internal/shared/storage/object/s3"
	"docdash-backend/internal/shared/telemetry"
)

// App holds shared dependencies built once at startup.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Redis            *redis.Client
	Store            object.ObjectStore
	Dispatcher       *processing.Dispatcher
	DocumentsRepo    documents.DocumentsRepo
	DocumentsService *documents.Service
	DocumentsHandler *documents.Handler
	Health           *health.Service
}

// Build prepares shared dependencies and wires routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	app := &App{Config: cfg, Health: health.NewService()}

	verifier, err := auth.NewVerifier(auth.VerifierConfig{
		Secret:        cfg.Auth.JWTSecret,
		PublicKeyFile: cfg.Auth.PublicKeyFile,
		Issuer:        cfg.Auth.Issuer,
		Env:           cfg.Env,
	})
	if err != nil {
		return nil, err
	}

	if app.DB, err = buildDB(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Store, err = buildStore(ctx, cfg); err != nil {
		app.Close()
		return nil, err
	}
	if app.Redis, err = buildRedis(ctx, cfg); err != nil {
		app.Close()
		return nil, err
	}

	notifier, err := processing.NewNotifier(ctx, cfg.Processing, cfg.AWSRegion)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Dispatcher = processing.NewDispatcher(notifier, cfg.Processing.Timeout)

	buildServices(app)

	var blobs object.ObjectStore
	if cfg.ObjectStoreType == "local" {
		blobs = app.Store
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Verifier:        verifier,
		DocumentHandler: app.DocumentsHandler,
		Health:          app.Health,
		BlobStore:       blobs,
		RateLimiter:     middleware.NewRateLimiter(nil),
	})

	return app, nil
}

// Close releases shared clients. The dispatcher should be drained first.
func (a *App) Close() error {
	var errs []error
	if a.Dispatcher != nil {
		errs = append(errs, a.Dispatcher.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil && db.RuntimeProfile() != db.ProfileLambda {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.database_missing", map[string]any{
				"detail": "DATABASE_URL empty; using in-memory repository",
			})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.RuntimeProfile())
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.database_connect_failed", map[string]any{
				"detail": "using in-memory repository",
				"error":  err.Error(),
			})
			return nil, nil
		}
		return nil, err
	}

	if cfg.IsDevLike() {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, s3store.Options{
			Region:        cfg.AWSRegion,
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL+"/storage"), nil
	}
}

func buildRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return nil, nil
	}
	client, err := cache.Connect(ctx, cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.redis_connect_failed", map[string]any{
				"detail": "listing cache disabled",
				"error":  err.Error(),
			})
			return nil, nil
		}
		return nil, err
	}
	return client, nil
}

func buildServices(app *App) {
	var docRepo documents.DocumentsRepo
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		app.Health.Register("database", app.DB.PingContext)
	} else {
		docRepo = documents.NewMemoryRepo()
	}

	var listCache documents.ListCache = documents.NopCache{}
	if app.Redis != nil {
		listCache = documents.NewRedisCache(app.Redis, app.Config.Redis.TTL)
		app.Health.Register("redis", func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		})
	}

	docSvc := &documents.Service{
		Store:          app.Store,
		Repo:           docRepo,
		Cache:          listCache,
		Processing:     app.Dispatcher,
		MaxUploadBytes: app.Config.MaxUploadBytes,
	}

	app.DocumentsRepo = docRepo
	app.DocumentsService = docSvc
	app.DocumentsHandler = documents.NewHandler(docSvc, app.Config.MaxUploadBytes, app.Config.MaxPageSize)
}
