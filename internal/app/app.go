package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/cardpoint/onboarding-service/internal/config"
	"github.com/cardpoint/onboarding-service/internal/repositories"
	"github.com/cardpoint/onboarding-service/internal/utils"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
)

// App owns the connection to the configured store and the repositories
// built on it.
type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client

	Sessions   repositories.SessionRepository
	Themes     repositories.ThemeRepository
	Challenges repositories.OTPChallengeRepository
}

func NewApp(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	switch cfg.StoreBackend {
	case config.StoreMemory:
		store := repositories.NewMemoryStore(cfg.SessionTTL, nil)
		app.Sessions = store
		app.Themes = store
		app.Challenges = repositories.NewMemoryOTPChallengeRepository(nil)
		utils.Logger.Warn("Using in-memory session store; sessions do not survive a restart.")

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		err := connectWithRetry("Redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		store := repositories.NewRedisStore(client, cfg.SessionTTL, nil)
		app.Redis = client
		app.Sessions = store
		app.Themes = store
		// Challenges are short-lived and single-use; redis deployments keep
		// them per instance.
		app.Challenges = repositories.NewMemoryOTPChallengeRepository(nil)

	case config.StorePostgres:
		var pool *pgxpool.Pool
		err := connectWithRetry("DB", func(ctx context.Context) error {
			var err error
			pool, err = newDBPool(ctx, cfg.DBUrl)
			return err
		})
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := repositories.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensuring schema: %w", err)
		}
		app.DB = pool
		app.Sessions = repositories.NewPostgresSessionRepository(pool, cfg.SessionTTL, nil)
		app.Themes = repositories.NewPostgresThemeRepository(pool)
		app.Challenges = repositories.NewPostgresOTPChallengeRepository(pool)

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	utils.Logger.Infof("%s using %s store", cfg.AppName, cfg.StoreBackend)
	return app, nil
}

// Ping reports whether the session store is reachable.
func (a *App) Ping(ctx context.Context) error {
	return a.Sessions.Ping(ctx)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
		utils.Logger.Info("onboarding-service DB connection closed.")
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			utils.Logger.WithError(err).Warn("Error closing Redis client")
			return
		}
		utils.Logger.Info("onboarding-service Redis connection closed.")
	}
}

func connectWithRetry(target string, connect func(ctx context.Context) error) error {
	var (
		err     error
		backoff = initialBackoff
	)
	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		err = connect(ctx)
		cancel()
		if err == nil {
			utils.Logger.Infof("onboarding-service connected to %s on attempt %d", target, i)
			return nil
		}

		utils.Logger.WithError(err).Warnf(
			"Failed %s connect on attempt %d/%d. Retrying in %v...",
			target, i, maxRetries, backoff,
		)

		if i == maxRetries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	return fmt.Errorf("unable to connect to %s after %d attempts: %w", target, maxRetries, err)
}

func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	return pgxpool.ConnectConfig(ctx, cfg)
}
