package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// IndexReport describes the searchable corpus.
type IndexReport struct {
	Ready  bool
	Videos int
	Frames int
}

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Index  IndexReport
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	index     IndexStater
	videos    VideoLister
}

// New creates a Service. embedding can be nil.
func New(db DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{db: db, embedding: embedding}
}

// WithIndex adds frame index and video registry stats to the report.
func (s *Service) WithIndex(index IndexStater, videos VideoLister) *Service {
	s.index = index
	s.videos = videos
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	var idx IndexReport
	if s.index != nil {
		idx = s.checkIndex(ctx, checks)
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, Index: idx}
}

// checkIndex never fails the report on an unbuilt index: an empty corpus is healthy.
func (s *Service) checkIndex(ctx context.Context, checks map[string]CheckResult) IndexReport {
	var r IndexReport
	st, err := s.index.Stats(ctx)
	if err != nil {
		checks["index"] = CheckError
		return r
	}
	checks["index"] = CheckOK
	r.Ready, r.Frames = st.Ready, st.Frames

	if s.videos != nil {
		vids, err := s.videos.List(ctx)
		if err != nil {
			checks["index"] = CheckError
			return r
		}
		r.Videos = len(vids)
	}
	return r
}
