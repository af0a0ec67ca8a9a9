package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/beach-safety-search/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/beach-safety-search/internal/adapter/kafka"
	"github.com/couchcryptid/beach-safety-search/internal/adapter/mapbox"
	"github.com/couchcryptid/beach-safety-search/internal/adapter/postgres"
	"github.com/couchcryptid/beach-safety-search/internal/adapter/sqlite"
	"github.com/couchcryptid/beach-safety-search/internal/changefeed"
	"github.com/couchcryptid/beach-safety-search/internal/config"
	"github.com/couchcryptid/beach-safety-search/internal/domain"
	"github.com/couchcryptid/beach-safety-search/internal/index"
	"github.com/couchcryptid/beach-safety-search/internal/observability"
	"github.com/couchcryptid/beach-safety-search/internal/search"
)

const dbMaxConns int32 = 5

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional collaborators: each one that fails to start disables its
	// feature instead of stopping the service.
	var repo *postgres.BeachRepository
	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL, dbMaxConns)
		if err != nil {
			logger.Warn("database unavailable, serving from snapshot", "error", err)
		} else {
			defer pool.Close()
			repo = postgres.NewBeachRepository(pool, logger)
		}
	}

	var snapshots *sqlite.SnapshotStore
	if cfg.SnapshotPath != "" {
		snapshots, err = sqlite.Open(cfg.SnapshotPath)
		if err != nil {
			logger.Warn("snapshot store unavailable", "path", cfg.SnapshotPath, "error", err)
		} else {
			defer snapshots.Close()
		}
	}

	idx := index.New()
	loader := &indexLoader{index: idx, repo: repo, snapshots: snapshots, logger: logger, metrics: metrics}
	if err := loader.load(ctx); err != nil {
		logger.Error("initial beach load failed, retrying in background", "error", err)
		go loader.retryLoad(ctx)
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var searcher domain.PlaceSearcher
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, mapbox.Options{
			Language: cfg.MapboxLanguage,
			Limit:    cfg.MapboxResultLimit,
			Area:     cfg.ServiceArea,
		}, logger, metrics)
		searcher = mapbox.NewCachedSearcher(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled, serving local results only")
	}

	svc := search.NewService(idx, searcher, cfg.MapboxTimeout, cfg.FallbackOrigin, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, idx, svc, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start change processor.
	var reader *kafkaadapter.Reader
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)

		var opts []changefeed.Option
		var likes changefeed.LikeStore
		if repo != nil {
			likes = repo
			opts = append(opts, changefeed.WithStatusRecorder(repo))
		} else {
			logger.Warn("no database, status notifications disabled")
		}
		p := changefeed.New(reader, idx, likes, writer, logger, metrics, cfg.BatchSize, opts...)

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("change processor error", "error", err)
			}
		}()
	} else {
		logger.Info("change feed disabled, beach list will not update live")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	loader.saveSnapshot(shutdownCtx)

	logger.Info("shutdown complete")
}

// indexLoader fills the index from the database, falling back to the last
// saved snapshot.
type indexLoader struct {
	index     *index.Index
	repo      *postgres.BeachRepository
	snapshots *sqlite.SnapshotStore
	logger    *slog.Logger
	metrics   *observability.Metrics
}

func (l *indexLoader) load(ctx context.Context) error {
	var dbErr error
	if l.repo != nil {
		beaches, err := l.repo.ListBeaches(ctx)
		if err == nil {
			l.install(beaches, "database")
			l.saveSnapshot(ctx)
			return nil
		}
		dbErr = err
		l.logger.Warn("list beaches failed, trying snapshot", "error", err)
	}

	if l.snapshots == nil {
		return errors.Join(dbErr, errors.New("no snapshot store configured"))
	}
	beaches, savedAt, err := l.snapshots.Load(ctx)
	if err != nil {
		return errors.Join(dbErr, err)
	}
	l.install(beaches, "snapshot")
	l.logger.Info("serving beach snapshot", "saved_at", savedAt, "age", time.Since(savedAt).Round(time.Second))
	return nil
}

func (l *indexLoader) install(beaches []domain.BeachRecord, source string) {
	l.index.Replace(beaches)
	l.metrics.IndexSize.Set(float64(l.index.Len()))
	l.logger.Info("beach index loaded", "source", source, "beaches", len(beaches))
}

// retryLoad keeps trying to load until it succeeds or ctx is cancelled.
func (l *indexLoader) retryLoad(ctx context.Context) {
	backoff := time.Second
	for !l.index.Loaded() {
		if !retry.SleepWithContext(ctx, backoff) {
			return
		}
		if err := l.load(ctx); err != nil {
			l.logger.Warn("beach load retry failed", "error", err, "next_retry", backoff)
		}
		backoff = retry.NextBackoff(backoff, time.Minute)
	}
}

// saveSnapshot persists the current index, including live updates, for the
// next cold start.
func (l *indexLoader) saveSnapshot(ctx context.Context) {
	if l.snapshots == nil || !l.index.Loaded() {
		return
	}
	if err := l.snapshots.Save(ctx, l.index.Beaches(), time.Now().UTC()); err != nil {
		l.logger.Warn("save beach snapshot failed", "error", err)
	}
}
