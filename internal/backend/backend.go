// Package backend opens the frame index and video registry selected by
// database.driver. Both the API server and vidsearchctl start from here.
package backend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vidsearch/internal/config"
	"github.com/kailas-cloud/vidsearch/internal/db"
	dbRedis "github.com/kailas-cloud/vidsearch/internal/db/redis"
	domframe "github.com/kailas-cloud/vidsearch/internal/domain/frame"
	domvideo "github.com/kailas-cloud/vidsearch/internal/domain/video"
	framerepo "github.com/kailas-cloud/vidsearch/internal/repository/frame"
	"github.com/kailas-cloud/vidsearch/internal/repository/memory"
	"github.com/kailas-cloud/vidsearch/internal/repository/pgvector"
	videorepo "github.com/kailas-cloud/vidsearch/internal/repository/video"
)

// FrameIndex is the union of what search, ingest, the registry and health need.
type FrameIndex interface {
	EnsureIndex(ctx context.Context) error
	Reindex(ctx context.Context) error
	Stats(ctx context.Context) (domframe.Stats, error)
	Add(ctx context.Context, entries []domframe.Entry) error
	Search(ctx context.Context, vector []float32, topN int) ([]domframe.Candidate, error)
	DeleteVideo(ctx context.Context, videoID string) (int, error)
}

// VideoStore is the video registry.
type VideoStore interface {
	Create(ctx context.Context, v domvideo.Video) error
	Save(ctx context.Context, v domvideo.Video) error
	Get(ctx context.Context, id string) (domvideo.Video, error)
	Contains(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]domvideo.Video, error)
	Delete(ctx context.Context, id string) error
}

// Backend bundles the opened stores.
type Backend struct {
	Driver string
	Frames FrameIndex
	Videos VideoStore
	DB     db.Pinger
	// KV is set only for Valkey/Redis; it backs the embedding cache.
	KV    db.KVStore
	close func()
}

// Close releases connections. Safe on a nil close func.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open connects to the configured driver and waits for it to become ready.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	dim := cfg.Embedding.Dimensions
	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second

	switch cfg.Database.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
		}
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("%s not ready: %w", cfg.Database.Driver, err)
		}
		frames := framerepo.New(store, dim).
			WithAlgorithm(vectorAlgorithm(cfg.Index.Algorithm)).
			WithHNSW(framerepo.HNSWConfig{
				M:           cfg.Index.HNSWM,
				EFConstruct: cfg.Index.HNSWEFConstruct,
			})
		logger.Info("Connected to database",
			zap.String("driver", cfg.Database.Driver),
			zap.Strings("addrs", cfg.Database.Addrs),
			zap.String("algorithm", cfg.Index.Algorithm),
		)
		return &Backend{
			Driver: cfg.Database.Driver,
			Frames: frames,
			Videos: videorepo.New(store),
			DB:     store,
			KV:     store,
			close:  store.Close,
		}, nil

	case config.DriverPostgres:
		d, err := pgvector.Open(ctx, cfg.Database.DSN, dim, timeout)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		frames := pgvector.NewFrames(d).WithHNSW(pgvector.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		})
		logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
		return &Backend{
			Driver: cfg.Database.Driver,
			Frames: frames,
			Videos: pgvector.NewVideos(d),
			DB:     d,
			close:  d.Close,
		}, nil

	case config.DriverMemory:
		logger.Warn("Using in-process index; data is lost on restart")
		return &Backend{
			Driver: cfg.Database.Driver,
			Frames: memory.NewFrames(dim),
			Videos: memory.NewVideos(),
			DB:     alwaysUp{},
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// vectorAlgorithm maps index.algorithm onto the FT.CREATE keyword.
func vectorAlgorithm(name string) db.VectorAlgorithm {
	if name == config.AlgorithmFlat {
		return db.VectorFlat
	}
	return db.VectorHNSW
}

type alwaysUp struct{}

func (alwaysUp) Ping(context.Context) error { return nil }
