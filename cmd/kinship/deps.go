package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ersonp/kinship/internal/application/handlers"
	"github.com/ersonp/kinship/internal/domain/ports"
	"github.com/ersonp/kinship/internal/domain/services"
	"github.com/ersonp/kinship/internal/infrastructure/config"
	"github.com/ersonp/kinship/internal/infrastructure/logging"
	"github.com/ersonp/kinship/internal/infrastructure/metrics"
	"github.com/ersonp/kinship/internal/infrastructure/persondb/badger"
	"github.com/ersonp/kinship/internal/infrastructure/persondb/sqlite"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and stores are internal.
type Deps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Registry   *prometheus.Registry
	People     *handlers.PersonHandler
	Algorithms *handlers.AlgorithmHandler
	Import     *handlers.ImportHandler
}

// basePath returns the project directory given by --dir, or the working directory.
func basePath() (string, error) {
	if globalDir != "" {
		return globalDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return cwd, nil
}

// treeName resolves --tree. Trees other than the default must be registered.
func treeName(base string) (string, error) {
	if globalTree == "" || globalTree == config.DefaultTree {
		return config.DefaultTree, nil
	}
	trees, err := config.LoadTrees(base)
	if err != nil {
		return "", fmt.Errorf("loading trees: %w", err)
	}
	if _, err := trees.Get(globalTree); err != nil {
		return "", err
	}
	return globalTree, nil
}

// withDeps loads config, opens the tree's store and builds dependencies,
// then calls the provided function. It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	base, err := basePath()
	if err != nil {
		return err
	}

	cfg, err := config.Load(base)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	tree, err := treeName(base)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, audit, err := openStore(ctx, cfg, base, tree, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	engine := services.NewConsistencyEngine(store, logger.Named("engine"))
	algorithmService := services.NewAlgorithmService(engine, logger.Named("algorithms"))

	deps := &Deps{
		Config:     cfg,
		Logger:     logger.With(zap.String("tree", tree)),
		Registry:   reg,
		People:     handlers.NewPersonHandler(engine, audit, m),
		Algorithms: handlers.NewAlgorithmHandler(algorithmService, m),
		Import:     handlers.NewImportHandler(engine, m),
	}

	return fn(deps)
}

// openStore opens the configured backend for tree. audit is nil when the
// backend keeps no history.
func openStore(
	ctx context.Context,
	cfg *config.Config,
	base string,
	tree string,
	logger *zap.Logger,
) (ports.PersonStore, ports.AuditLog, error) {
	path := cfg.StorePathForTree(base, tree)

	switch cfg.Store.Backend {
	case config.BackendBadger:
		badgerCfg := cfg.Store.Badger
		badgerCfg.Path = path
		repo, err := badger.NewRepository(badgerCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("creating badger repository: %w", err)
		}
		return repo, nil, nil

	default:
		if cfg.Store.SQLite.Path == "" {
			if err := os.MkdirAll(config.TreeDir(base, tree), 0755); err != nil {
				return nil, nil, fmt.Errorf("creating tree directory: %w", err)
			}
		}
		repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: path})
		if err != nil {
			return nil, nil, fmt.Errorf("creating sqlite repository: %w", err)
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			repo.Close()
			return nil, nil, fmt.Errorf("ensuring sqlite schema: %w", err)
		}
		return repo, repo, nil
	}
}
