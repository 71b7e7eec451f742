package chi

import (
	"math"
	"path"
	"time"

	"github.com/kailas-cloud/vidsearch/internal/domain/search/result"
	"github.com/kailas-cloud/vidsearch/internal/domain/search/segment"
	domvideo "github.com/kailas-cloud/vidsearch/internal/domain/video"
	healthuc "github.com/kailas-cloud/vidsearch/internal/usecase/health"
	"github.com/kailas-cloud/vidsearch/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/vidsearch/internal/usecase/search"
)

// searchOptions are shared by text and vector searches. Pointers distinguish
// "not set" (server default) from an explicit value.
type searchOptions struct {
	K             *int     `json:"k"`
	MinScore      *float64 `json:"min_score"`
	Threshold     *float64 `json:"similarity_threshold"` // alias of min_score
	VideoID       string   `json:"video_id"`
	MergeSegments bool     `json:"merge_segments"`
	SegmentWindow *float64 `json:"segment_window"`
	MergeGap      *float64 `json:"merge_gap"`
}

type searchRequest struct {
	Query string `json:"query"`
	searchOptions
}

type vectorSearchRequest struct {
	Vector []float32 `json:"vector"`
	searchOptions
}

type frameResultJSON struct {
	FrameID      string  `json:"frame_id"`
	VideoID      string  `json:"video_id"`
	Timestamp    float64 `json:"timestamp"`
	Score        float64 `json:"score"`
	Rank         int     `json:"rank"`
	ThumbnailURL string  `json:"thumbnail_url"`
}

type segmentJSON struct {
	VideoID    string          `json:"video_id"`
	VideoURL   string          `json:"video_url"`
	StartTime  float64         `json:"start_time"`
	EndTime    float64         `json:"end_time"`
	Duration   float64         `json:"duration"`
	BestScore  float64         `json:"best_score"`
	BestFrame  frameResultJSON `json:"best_frame"`
	FrameCount int             `json:"frame_count"`
}

type videoStatsJSON struct {
	SegmentCount  int     `json:"segment_count"`
	TotalDuration float64 `json:"total_duration"`
	BestScore     float64 `json:"best_score"`
}

type mergeInfoJSON struct {
	TotalSegments int                       `json:"total_segments"`
	TotalDuration float64                   `json:"total_duration"`
	UniqueVideos  int                       `json:"unique_videos"`
	Videos        map[string]videoStatsJSON `json:"videos"`
}

type searchResponse struct {
	Query        string            `json:"query,omitempty"`
	VideoID      *string           `json:"video_id"`
	Results      []frameResultJSON `json:"results"`
	TotalResults int               `json:"total_results"`
	Segments     *[]segmentJSON    `json:"segments,omitempty"`
	MergeInfo    *mergeInfoJSON    `json:"merge_info,omitempty"`
}

type ingestFrameJSON struct {
	FrameID     string    `json:"frame_id"`
	FrameNumber int       `json:"frame_number"`
	Timestamp   float64   `json:"timestamp"`
	FramePath   string    `json:"frame_path"`
	Embedding   []float32 `json:"embedding"`
}

type ingestRequest struct {
	VideoID          string            `json:"video_id"`
	OriginalFilename string            `json:"original_filename"`
	VideoPath        string            `json:"video_path"`
	Duration         float64           `json:"duration"`
	FPS              float64           `json:"fps"`
	Width            int               `json:"width"`
	Height           int               `json:"height"`
	TotalFrames      int               `json:"total_frames"`
	Frames           []ingestFrameJSON `json:"frames"`
}

type videoInfoJSON struct {
	VideoID          string    `json:"video_id"`
	OriginalFilename string    `json:"original_filename"`
	Duration         float64   `json:"duration"`
	FPS              float64   `json:"fps"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	TotalFrames      int       `json:"total_frames"`
	FramesIndexed    int       `json:"frames_indexed"`
	CreatedAt        time.Time `json:"created_at"`
}

type ingestResponse struct {
	Success         bool          `json:"success"`
	Message         string        `json:"message"`
	VideoID         string        `json:"video_id"`
	VideoInfo       videoInfoJSON `json:"video_info"`
	FramesExtracted int           `json:"frames_extracted"`
}

type videoListResponse struct {
	Videos []videoInfoJSON `json:"videos"`
	Total  int             `json:"total"`
}

type healthResponse struct {
	Status        string            `json:"status"`
	Checks        map[string]string `json:"checks"`
	IndexReady    bool              `json:"index_ready"`
	VideosIndexed int               `json:"videos_indexed"`
	FramesIndexed int               `json:"frames_indexed"`
}

// links builds media URLs for search responses.
type links struct {
	thumbnailBase string
	videoBase     string
}

// thumbnail is empty for frames ingested without a storage path.
func (l links) thumbnail(r *result.Result) string {
	p := r.Frame().StoragePath()
	if p == "" {
		return ""
	}
	return l.thumbnailBase + "/" + r.VideoID() + "/" + path.Base(p)
}

func (l links) video(videoID string) string {
	return l.videoBase + "/" + videoID
}

func (l links) frameToJSON(r *result.Result) frameResultJSON {
	return frameResultJSON{
		FrameID:      r.FrameID(),
		VideoID:      r.VideoID(),
		Timestamp:    round(r.Timestamp(), 2),
		Score:        round(r.Score(), 4),
		Rank:         r.Rank(),
		ThumbnailURL: l.thumbnail(r),
	}
}

func (l links) segmentToJSON(s *segment.Segment) segmentJSON {
	best := s.BestFrame()
	return segmentJSON{
		VideoID:    s.VideoID(),
		VideoURL:   l.video(s.VideoID()),
		StartTime:  round(s.Start(), 2),
		EndTime:    round(s.End(), 2),
		Duration:   round(s.Duration(), 2),
		BestScore:  round(s.BestScore(), 4),
		BestFrame:  l.frameToJSON(&best),
		FrameCount: s.FrameCount(),
	}
}

func (l links) searchToJSON(resp *searchuc.Response) searchResponse {
	out := searchResponse{
		Query:        resp.Query,
		Results:      make([]frameResultJSON, len(resp.Results)),
		TotalResults: len(resp.Results),
	}
	if resp.VideoID != "" {
		id := resp.VideoID
		out.VideoID = &id
	}
	for i := range resp.Results {
		out.Results[i] = l.frameToJSON(&resp.Results[i])
	}
	if resp.Summary != nil {
		segs := make([]segmentJSON, len(resp.Segments))
		for i := range resp.Segments {
			segs[i] = l.segmentToJSON(&resp.Segments[i])
		}
		out.Segments = &segs
		out.MergeInfo = summaryToJSON(resp.Summary)
	}
	return out
}

func summaryToJSON(s *segment.Summary) *mergeInfoJSON {
	videos := make(map[string]videoStatsJSON, len(s.Videos))
	for id, st := range s.Videos {
		videos[id] = videoStatsJSON{
			SegmentCount:  st.SegmentCount,
			TotalDuration: round(st.TotalDuration, 2),
			BestScore:     round(st.BestScore, 4),
		}
	}
	return &mergeInfoJSON{
		TotalSegments: s.TotalSegments,
		TotalDuration: round(s.TotalDuration, 2),
		UniqueVideos:  s.UniqueVideos,
		Videos:        videos,
	}
}

func videoToJSON(v domvideo.Video) videoInfoJSON {
	m := v.Meta()
	return videoInfoJSON{
		VideoID:          v.ID(),
		OriginalFilename: v.Filename(),
		Duration:         m.Duration,
		FPS:              m.FPS,
		Width:            m.Width,
		Height:           m.Height,
		TotalFrames:      m.TotalFrames,
		FramesIndexed:    v.FramesIndexed(),
		CreatedAt:        time.UnixMilli(v.CreatedAt()).UTC(),
	}
}

func ingestFromJSON(req *ingestRequest) ingest.Video {
	frames := make([]ingest.Frame, len(req.Frames))
	for i, f := range req.Frames {
		frames[i] = ingest.Frame{
			ID:          f.FrameID,
			Number:      f.FrameNumber,
			Timestamp:   f.Timestamp,
			StoragePath: f.FramePath,
			Vector:      f.Embedding,
		}
	}
	return ingest.Video{
		ID:       req.VideoID,
		Filename: req.OriginalFilename,
		Path:     req.VideoPath,
		Meta: domvideo.Meta{
			Duration:    req.Duration,
			FPS:         req.FPS,
			Width:       req.Width,
			Height:      req.Height,
			TotalFrames: req.TotalFrames,
		},
		Frames: frames,
	}
}

func healthToJSON(r *healthuc.Report) healthResponse {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return healthResponse{
		Status:        string(r.Status),
		Checks:        checks,
		IndexReady:    r.Index.Ready,
		VideosIndexed: r.Index.Videos,
		FramesIndexed: r.Index.Frames,
	}
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
