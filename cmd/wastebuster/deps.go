package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/wastebuster/wastebuster/internal/assets"
	"github.com/wastebuster/wastebuster/internal/classify"
	claudeclassify "github.com/wastebuster/wastebuster/internal/classify/claude"
	ollamaclassify "github.com/wastebuster/wastebuster/internal/classify/ollama"
	"github.com/wastebuster/wastebuster/internal/config"
	"github.com/wastebuster/wastebuster/internal/dataset"
	"github.com/wastebuster/wastebuster/internal/db"
	"github.com/wastebuster/wastebuster/internal/domain"
	"github.com/wastebuster/wastebuster/internal/logging"
	"github.com/wastebuster/wastebuster/internal/saved"
	"github.com/wastebuster/wastebuster/internal/service"
	"github.com/wastebuster/wastebuster/internal/store"
	"github.com/wastebuster/wastebuster/internal/store/memstore"
	"github.com/wastebuster/wastebuster/internal/store/pgstore"
	"github.com/wastebuster/wastebuster/internal/store/redisstore"
)

// app is everything a command needs, wired from the environment.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	service  *service.CatalogService
	datasets []dataset.Refresher
	watchers []func(ctx context.Context) error
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// kvBackend is the storage both the saved store and every backend satisfy.
type kvBackend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Printf("failed to initialize logger: %v", err)
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, closers: []func(){cleanup}}

	kv, cache, err := a.openStorage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	client := &http.Client{Timeout: cfg.FetchTimeout}
	data := service.Datasets{
		Places:     newSnapshot[domain.Place](a, service.CollectionPlaces, cfg.PlacesURL, "", client, cache),
		Events:     newSnapshot[domain.Event](a, service.CollectionEvents, cfg.EventsURL, assets.EventsFile, client, cache),
		Ideas:      newSnapshot[domain.Idea](a, service.CollectionIdeas, cfg.IdeasURL, assets.IdeasFile, client, cache),
		Categories: newSnapshot[domain.Category](a, service.CollectionCategories, cfg.CategoriesURL, assets.CategoriesFile, client, cache),
	}

	loc, err := cfg.Location()
	if err != nil {
		a.Close()
		return nil, err
	}
	opts := []service.Option{service.WithLocation(loc)}
	if c := newClassifier(cfg, logger); c != nil {
		opts = append(opts, service.WithClassifier(c))
	}

	savedStore := saved.NewStore(kv, logger)
	a.service = service.NewCatalogService(data,
		savedStore.View(saved.EventsKey),
		savedStore.View(saved.IdeasKey),
		logger, opts...)
	return a, nil
}

// openStorage opens the saved-item backend and, unless saved items are kept
// in memory, the SQLite dataset cache.
func (a *app) openStorage(ctx context.Context) (kvBackend, dataset.Cache, error) {
	cfg := a.cfg
	if cfg.SavedBackend == "memory" {
		a.logger.Info("using in-memory saved store")
		return memstore.New(), nil, nil
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := database.Close(); err != nil {
			a.logger.Error("failed to close database", "error", err)
		}
	})
	cache := store.NewDatasetCacheStore(database)

	switch cfg.SavedBackend {
	case "redis":
		rs, err := redisstore.Dial(ctx, cfg.RedisAddr, "")
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() { _ = rs.Close() })
		a.logger.Info("using redis saved store", "addr", cfg.RedisAddr)
		return rs, cache, nil
	case "postgres":
		ps, err := pgstore.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, ps.Close)
		a.logger.Info("using postgres saved store")
		return ps, cache, nil
	default:
		a.logger.Info("using sqlite saved store", "path", cfg.DBPath)
		return store.NewKVStore(database), cache, nil
	}
}

// newSnapshot picks the dataset source: an explicit URL first, then a file in
// DATA_DIR (watched for edits), then the bundled copy.
func newSnapshot[T any](a *app, name, url, bundled string, client *http.Client, cache dataset.Cache) *dataset.Snapshot[T] {
	var src dataset.Source[T]
	var file *dataset.FileSource[T]
	switch {
	case url != "":
		src = dataset.NewHTTPSource[T](url,
			dataset.WithHTTPClient(client),
			dataset.WithRateLimit(a.cfg.FetchRateLimit))
	case a.cfg.DataDir != "":
		file = dataset.NewFileSource[T](a.cfg.DataDir, name+".json")
		src = file
	default:
		src = dataset.NewFSSource[T](assets.FS, bundled)
	}
	a.logger.Debug("dataset source", "collection", name, "source", fmt.Sprint(src))

	var opts []dataset.SnapshotOption
	if cache != nil {
		opts = append(opts, dataset.WithCache(cache))
	}
	snap := dataset.NewSnapshot(name, src, a.logger, opts...)
	a.datasets = append(a.datasets, snap)

	if file != nil {
		a.watchers = append(a.watchers, func(ctx context.Context) error {
			return file.Watch(ctx, a.logger, func() {
				_ = snap.Refresh(ctx)
			})
		})
	}
	return snap
}

// startBackground watches DATA_DIR files and starts periodic refresh. Both
// stop when ctx is done.
func (a *app) startBackground(ctx context.Context) {
	for _, watch := range a.watchers {
		if err := watch(ctx); err != nil {
			a.logger.Warn("failed to watch dataset file", "error", err)
		}
	}
	go dataset.RunPeriodic(ctx, a.cfg.RefreshInterval, a.logger, a.datasets...)
}

func newClassifier(cfg *config.Config, logger *slog.Logger) classify.Classifier {
	switch cfg.ClassifyBackend {
	case "claude":
		logger.Info("using Claude classify backend", "model", cfg.ClaudeModel)
		return claudeclassify.New(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "ollama":
		logger.Info("using Ollama classify backend", "model", cfg.OllamaModel)
		return ollamaclassify.New(cfg.OllamaHost, cfg.OllamaModel)
	default:
		logger.Info("item identification disabled")
		return nil
	}
}
