package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/vidsearch/internal/domain"
	"github.com/kailas-cloud/vidsearch/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/vidsearch/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/vidsearch/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/vidsearch/internal/usecase/search"
	videouc "github.com/kailas-cloud/vidsearch/internal/usecase/video"
)

// Request body limits.
const (
	maxSearchBody = 1 << 20  // 1 MiB
	maxIngestBody = 64 << 20 // 64 MiB, a few thousand 512-d frames
)

// SearchDefaults holds server-side defaults for omitted search options.
type SearchDefaults struct {
	TopK     int
	MaxTopK  int
	MinScore float64
	Window   float64
	MergeGap float64
}

// MediaLinks configures the URLs returned for thumbnails and videos.
type MediaLinks struct {
	ThumbnailBase string
	VideoBase     string
}

// Server implements the vidsearch HTTP API.
type Server struct {
	search        *searchuc.Service
	ingest        *ingestuc.Service
	videos        *videouc.Service
	health        *healthuc.Service
	defaults      SearchDefaults
	links         links
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	ingest *ingestuc.Service,
	videos *videouc.Service,
	health *healthuc.Service,
	defaults SearchDefaults,
	media MediaLinks,
) *Server {
	if defaults.TopK <= 0 {
		defaults.TopK = request.DefaultTopK
	}
	if defaults.MaxTopK <= 0 {
		defaults.MaxTopK = request.MaxTopK
	}
	if defaults.Window <= 0 {
		defaults.Window = request.DefaultWindow
	}
	return &Server{
		search:        search,
		ingest:        ingest,
		videos:        videos,
		health:        health,
		defaults:      defaults,
		links:         links{thumbnailBase: media.ThumbnailBase, videoBase: media.VideoBase},
		errorHandlers: defaultErrorHandlers(),
	}
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, maxSearchBody, &req) {
		return
	}

	p, err := s.params(&req.searchOptions)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	searchReq, err := request.New(req.Query, p)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.search.Search(ctx, &searchReq)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, s.links.searchToJSON(&resp))
}

// SearchVector handles POST /api/search/vector.
func (s *Server) SearchVector(w http.ResponseWriter, r *http.Request) {
	var req vectorSearchRequest
	if !decodeBody(w, r, maxSearchBody, &req) {
		return
	}

	p, err := s.params(&req.searchOptions)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	searchReq, err := request.NewVector(req.Vector, p)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	resp, err := s.search.SearchVector(r.Context(), &searchReq)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, s.links.searchToJSON(&resp))
}

// IngestVideo handles POST /api/videos.
func (s *Server) IngestVideo(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !decodeBody(w, r, maxIngestBody, &req) {
		return
	}

	v, err := s.ingest.Ingest(r.Context(), ingestFromJSON(&req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/videos/"+v.ID())
	writeJSON(w, http.StatusCreated, ingestResponse{
		Success:         true,
		Message:         fmt.Sprintf("video indexed with %d frames", v.FramesIndexed()),
		VideoID:         v.ID(),
		VideoInfo:       videoToJSON(v),
		FramesExtracted: v.FramesIndexed(),
	})
}

// ListVideos handles GET /api/videos.
func (s *Server) ListVideos(w http.ResponseWriter, r *http.Request) {
	vids, err := s.videos.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]videoInfoJSON, len(vids))
	for i, v := range vids {
		items[i] = videoToJSON(v)
	}
	writeJSON(w, http.StatusOK, videoListResponse{Videos: items, Total: len(items)})
}

// GetVideo handles GET /api/videos/{id}.
func (s *Server) GetVideo(w http.ResponseWriter, r *http.Request) {
	v, err := s.videos.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, videoToJSON(v))
}

// DeleteVideo handles DELETE /api/videos/{id}.
func (s *Server) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	if err := s.videos.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthToJSON(&report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// params resolves omitted options to server defaults.
func (s *Server) params(o *searchOptions) (request.Params, error) {
	p := request.Params{
		TopK:          s.defaults.TopK,
		MinScore:      s.defaults.MinScore,
		VideoID:       o.VideoID,
		MergeSegments: o.MergeSegments,
		Window:        s.defaults.Window,
		MergeGap:      s.defaults.MergeGap,
		MaxTopK:       s.defaults.MaxTopK,
	}
	if o.K != nil {
		if *o.K <= 0 {
			return request.Params{}, fmt.Errorf("k must be between 1 and %d", s.defaults.MaxTopK)
		}
		p.TopK = *o.K
	}
	switch {
	case o.MinScore != nil:
		p.MinScore = *o.MinScore
	case o.Threshold != nil:
		p.MinScore = *o.Threshold
	}
	if o.SegmentWindow != nil {
		if *o.SegmentWindow <= 0 {
			return request.Params{}, errors.New("segment_window must be positive")
		}
		p.Window = *o.SegmentWindow
	}
	if o.MergeGap != nil {
		p.MergeGap = *o.MergeGap
	}
	return p, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.QueryUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}
