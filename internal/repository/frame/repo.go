package frame

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vidsearch/internal/db"
	"github.com/kailas-cloud/vidsearch/internal/domain"
	domframe "github.com/kailas-cloud/vidsearch/internal/domain/frame"
	"github.com/kailas-cloud/vidsearch/internal/logger"
)

// delChunk bounds the number of DELs pipelined in one round trip.
const delChunk = 500

// store is the consumer interface for the frame index (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexInfo(ctx context.Context, name string) (db.IndexInfo, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo stores frame embeddings as hashes under one FT vector index.
// Implements usecase/search.Index and usecase/ingest.Index.
type Repo struct {
	store     store
	vectorDim int
	algo      db.VectorAlgorithm
	hnsw      HNSWConfig
}

// New creates a frame repository for vectors of the given dimension, indexed with HNSW.
func New(s store, vectorDim int) *Repo {
	return &Repo{store: s, vectorDim: vectorDim, algo: db.VectorHNSW, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithAlgorithm selects HNSW (approximate) or FLAT (exact) vector indexing.
// Takes effect on the next EnsureIndex or Reindex.
func (r *Repo) WithAlgorithm(algo db.VectorAlgorithm) *Repo {
	if algo != "" {
		r.algo = algo
	}
	return r
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureIndex creates the vector index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def, err := buildIndex(r.vectorDim, r.algo, r.hnsw)
	if err != nil {
		return fmt.Errorf("build frame index: %w", err)
	}
	err = r.store.CreateIndex(ctx, def)
	if errors.Is(err, db.ErrIndexExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create frame index: %w", err)
	}
	logger.FromContext(ctx).Info("Frame index created", zap.Stringer("definition", def))
	return nil
}

// Reindex drops the FT index and creates it again with the current settings.
// Frame hashes stay in place and are indexed again by the server.
func (r *Repo) Reindex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, indexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop frame index: %w", err)
	}
	return r.EnsureIndex(ctx)
}

// Stats reports whether the index exists and how many frames it holds.
func (r *Repo) Stats(ctx context.Context) (domframe.Stats, error) {
	info, err := r.store.IndexInfo(ctx, indexName())
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return domframe.Stats{}, nil
		}
		return domframe.Stats{}, fmt.Errorf("frame index info: %w", err)
	}
	return domframe.Stats{Ready: true, Frames: info.NumDocs}, nil
}

// Add writes frame hashes in one pipelined round trip.
// Vectors are stored as given; callers normalise them.
func (r *Repo) Add(ctx context.Context, entries []domframe.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(entries))
	for i := range entries {
		e := &entries[i]
		if len(e.Vector) != r.vectorDim {
			return domain.NewDimMismatch(r.vectorDim, len(e.Vector))
		}
		items[i] = db.HashSetItem{
			Key:    frameKey(e.Frame.VideoID(), e.Frame.ID()),
			Fields: frameToHash(e),
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset frames: %w", err)
	}
	return nil
}

// Search returns the topN nearest frames, most similar first.
func (r *Repo) Search(ctx context.Context, vector []float32, topN int) ([]domframe.Candidate, error) {
	if len(vector) != r.vectorDim {
		return nil, domain.NewDimMismatch(r.vectorDim, len(vector))
	}
	if topN <= 0 {
		return []domframe.Candidate{}, nil
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(),
		Vector:       vector,
		K:            topN,
		ReturnFields: returnFields,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, domain.ErrIndexUnavailable
		}
		return nil, fmt.Errorf("search frames: %w", err)
	}

	out := make([]domframe.Candidate, 0, len(sr.Entries))
	for i := range sr.Entries {
		f, err := frameFromHash(sr.Entries[i].Key, sr.Entries[i].Fields)
		if err != nil {
			return nil, fmt.Errorf("parse frame %s: %w", sr.Entries[i].Key, err)
		}
		out = append(out, domframe.NewCandidate(f, sr.Entries[i].Score))
	}
	return out, nil
}

// DeleteVideo removes every frame of a video. Returns the number of frames removed.
func (r *Repo) DeleteVideo(ctx context.Context, videoID string) (int, error) {
	keys, err := r.store.Scan(ctx, videoPrefix(videoID)+"*")
	if err != nil {
		return 0, fmt.Errorf("scan frames %s: %w", videoID, err)
	}
	for start := 0; start < len(keys); start += delChunk {
		end := min(start+delChunk, len(keys))
		if err := r.store.Del(ctx, keys[start:end]...); err != nil {
			logger.FromContext(ctx).Warn("Partial frame delete",
				zap.String("video_id", videoID),
				zap.Int("deleted_before_chunk", start),
				zap.String("failed_key", db.FailedKey(err)),
				zap.Error(err),
			)
			return start, fmt.Errorf("del frames %s: %w", videoID, err)
		}
	}
	return len(keys), nil
}

// Key patterns: vidsearch:frames:idx, vidsearch:frame:{video_id}:{frame_id}

func indexName() string {
	return domain.KeyPrefix + "frames:idx"
}

func framePrefix() string {
	return domain.KeyPrefix + "frame:"
}

func videoPrefix(videoID string) string {
	return framePrefix() + videoID + ":"
}

func frameKey(videoID, frameID string) string {
	return videoPrefix(videoID) + frameID
}

func frameIDFromKey(key, videoID string) string {
	return strings.TrimPrefix(key, videoPrefix(videoID))
}

var returnFields = []string{fieldFrameID, fieldVideoID, fieldTimestamp, fieldNumber, fieldPath}

const (
	fieldFrameID   = "frame_id"
	fieldVideoID   = "video_id"
	fieldTimestamp = "timestamp"
	fieldNumber    = "frame_number"
	fieldPath      = "storage_path"
	fieldVector    = "__vector"
)

func frameToHash(e *domframe.Entry) map[string]string {
	return map[string]string{
		fieldFrameID:   e.Frame.ID(),
		fieldVideoID:   e.Frame.VideoID(),
		fieldTimestamp: strconv.FormatFloat(e.Frame.Timestamp(), 'f', -1, 64),
		fieldNumber:    strconv.Itoa(e.Frame.Number()),
		fieldPath:      e.Frame.StoragePath(),
		fieldVector:    string(db.EncodeVector(e.Vector)),
	}
}

func frameFromHash(key string, m map[string]string) (domframe.Frame, error) {
	videoID := m[fieldVideoID]
	if videoID == "" {
		return domframe.Frame{}, errors.New("missing video_id")
	}
	ts, err := strconv.ParseFloat(m[fieldTimestamp], 64)
	if err != nil {
		return domframe.Frame{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	var number int
	if s := m[fieldNumber]; s != "" {
		if number, err = strconv.Atoi(s); err != nil {
			return domframe.Frame{}, fmt.Errorf("invalid frame_number: %w", err)
		}
	}
	id := m[fieldFrameID]
	if id == "" {
		id = frameIDFromKey(key, videoID)
	}
	return domframe.Reconstruct(id, videoID, ts, number, m[fieldPath]), nil
}
