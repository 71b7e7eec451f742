package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vidsearch/internal/domain"
	"github.com/kailas-cloud/vidsearch/internal/domain/search/request"
	"github.com/kailas-cloud/vidsearch/internal/domain/search/result"
	"github.com/kailas-cloud/vidsearch/internal/domain/search/segment"
	"github.com/kailas-cloud/vidsearch/internal/logger"
	"github.com/kailas-cloud/vidsearch/internal/metrics"
)

// Response is the outcome of one search.
// Segments and Summary are set only when the request asked for consolidation.
type Response struct {
	Query    string
	VideoID  string
	Results  []result.Result
	Segments []segment.Segment
	Summary  *segment.Summary
}

// Service answers frame searches by text or by vector.
type Service struct {
	ranker *Ranker
	videos VideoCatalog
	embed  Embedder
}

// New creates a search service.
func New(ranker *Ranker, videos VideoCatalog, embed Embedder) *Service {
	return &Service{ranker: ranker, videos: videos, embed: embed}
}

// Search embeds the query text and runs a ranked lookup.
func (s *Service) Search(ctx context.Context, req *request.Request) (Response, error) {
	return s.run(ctx, req, func(ctx context.Context) ([]float32, error) {
		emb, err := s.embed.Embed(ctx, req.Query())
		if err != nil {
			return nil, fmt.Errorf("vectorize query: %w", err)
		}
		domain.UsageFromContext(ctx).Record(emb.TotalTokens)
		return emb.Embedding, nil
	})
}

// SearchVector runs a ranked lookup for a precomputed query embedding.
func (s *Service) SearchVector(ctx context.Context, req *request.Request) (Response, error) {
	return s.run(ctx, req, func(context.Context) ([]float32, error) {
		return req.Vector(), nil
	})
}

func (s *Service) run(
	ctx context.Context, req *request.Request,
	vectorize func(context.Context) ([]float32, error),
) (Response, error) {
	st, err := s.ranker.Stats(ctx)
	if err != nil {
		return Response{}, err
	}
	if !st.Ready {
		metrics.SearchIndexUnavailableTotal.Inc()
		return Response{}, domain.ErrIndexUnavailable
	}

	if req.HasScope() {
		ok, err := s.videos.Contains(ctx, req.VideoID())
		if err != nil {
			return Response{}, fmt.Errorf("check video: %w", err)
		}
		if !ok {
			return Response{}, domain.ErrVideoNotFound
		}
	}

	vec, err := vectorize(ctx)
	if err != nil {
		return Response{}, err
	}

	results, err := s.ranker.lookup(ctx, st, domain.Normalize(vec), req.TopK(), req.MinScore(), req.VideoID())
	if err != nil {
		return Response{}, err
	}
	metrics.SearchResults.Observe(float64(len(results)))

	resp := Response{Query: req.Query(), VideoID: req.VideoID(), Results: results}
	if req.MergeSegments() {
		segments, summary := segment.Consolidate(results, req.Window(), req.MergeGap())
		resp.Segments = segments
		resp.Summary = &summary
		metrics.SearchSegments.Observe(float64(len(segments)))
	}

	logger.FromContext(ctx).Debug("Search completed",
		zap.String("video_id", req.VideoID()),
		zap.Int("k", req.TopK()),
		zap.Int("results", len(results)),
		zap.Int("segments", len(resp.Segments)),
	)
	return resp, nil
}
