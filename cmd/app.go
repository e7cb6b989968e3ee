package cmd

import (
	"context"
	"log/slog"

	"github.com/telhawk-systems/logblock/internal/blocklist"
	"github.com/telhawk-systems/logblock/internal/config"
	"github.com/telhawk-systems/logblock/internal/logging"
	"github.com/telhawk-systems/logblock/internal/messaging"
	"github.com/telhawk-systems/logblock/internal/models"
	"github.com/telhawk-systems/logblock/internal/repository"
	"github.com/telhawk-systems/logblock/internal/service"
)

// app holds the dependencies shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	repo    repository.Repository
	sinks   []service.DecisionSink
	closers []func()
}

// newApp loads configPath, sets up logging and opens the repository.
// Sinks are connected only when withSinks is set.
func newApp(ctx context.Context, configPath string, withSinks bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	logging.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger}

	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.repo = repo
	a.closers = append(a.closers, repo.Close)

	if withSinks {
		if err := a.connectSinks(ctx); err != nil {
			a.close()
			return nil, err
		}
	}

	return a, nil
}

func openRepository(ctx context.Context, cfg *config.Config, logger *logging.Logger) (repository.Repository, error) {
	if !cfg.UsesPostgres() {
		logger.Warn("Using in-memory repository (development only)")
		return repository.NewInMemoryRepository(), nil
	}

	conn := cfg.Connection()
	connString := conn.ConnString()

	logger.Info("Connecting to PostgreSQL",
		slog.String("host", conn.Host),
		slog.Int("port", conn.Port),
		slog.String("database", conn.Database),
	)

	version, dirty, err := repository.Migrate(connString)
	if err != nil {
		return nil, &models.PersistenceError{Op: "migration", Err: err}
	}
	logger.Info("Database migration complete",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)

	pgRepo, err := repository.NewPostgresRepository(ctx, connString)
	if err != nil {
		return nil, &models.PersistenceError{Op: "connect", Err: err}
	}
	return pgRepo, nil
}

func (a *app) connectSinks(ctx context.Context) error {
	if a.cfg.NATS.URL != "" {
		natsCfg := messaging.DefaultConfig()
		natsCfg.URL = a.cfg.NATS.URL
		natsCfg.Subject = a.cfg.NATS.Subject

		pub, err := messaging.Connect(natsCfg)
		if err != nil {
			return err
		}
		a.sinks = append(a.sinks, pub)
		a.closers = append(a.closers, pub.Close)
		a.logger.Info("Publishing decisions to NATS", slog.String("subject", natsCfg.Subject))
	}

	if a.cfg.Redis.URL != "" {
		bl, err := blocklist.Connect(ctx, a.cfg.Redis.URL, a.cfg.Redis.Key)
		if err != nil {
			return err
		}
		a.sinks = append(a.sinks, bl)
		a.closers = append(a.closers, func() { _ = bl.Close() })
		a.logger.Info("Mirroring decisions to Redis", slog.String("key", a.cfg.Redis.Key))
	}

	return nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
