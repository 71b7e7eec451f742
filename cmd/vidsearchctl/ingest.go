package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	dombatch "github.com/kailas-cloud/vidsearch/internal/domain/batch"
	domvideo "github.com/kailas-cloud/vidsearch/internal/domain/video"
	ingestuc "github.com/kailas-cloud/vidsearch/internal/usecase/ingest"
)

// manifestVideo mirrors the POST /api/videos body.
type manifestVideo struct {
	VideoID          string          `json:"video_id"`
	OriginalFilename string          `json:"original_filename"`
	VideoPath        string          `json:"video_path"`
	Duration         float64         `json:"duration"`
	FPS              float64         `json:"fps"`
	Width            int             `json:"width"`
	Height           int             `json:"height"`
	TotalFrames      int             `json:"total_frames"`
	Frames           []manifestFrame `json:"frames"`
}

type manifestFrame struct {
	FrameID     string    `json:"frame_id"`
	FrameNumber int       `json:"frame_number"`
	Timestamp   float64   `json:"timestamp"`
	FramePath   string    `json:"frame_path"`
	Embedding   []float32 `json:"embedding"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <manifest.json>",
	Short: "Index videos with precomputed frame embeddings from a JSON manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runIngest(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(ctx context.Context, path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer func() { _ = f.Close() }()

	videos, err := readManifest(f)
	if err != nil {
		return err
	}

	svc := ingestuc.New(store.Frames, store.Videos, cfg.Embedding.Dimensions).
		WithMaxBatchSize(cfg.Index.MaxBatchSize)

	bar := progressbar.NewOptions(len(videos),
		progressbar.OptionSetDescription("Indexing videos"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	results := make([]dombatch.Result, 0, len(videos))
	for i := range videos {
		if ctx.Err() != nil {
			break
		}
		v, err := svc.Ingest(ctx, videos[i])
		if err != nil {
			results = append(results, dombatch.NewError(videos[i].ID, err))
		} else {
			results = append(results, dombatch.NewOK(v.ID(), v.FramesIndexed()))
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	printIngestResults(out, results)

	ok, failed := dombatch.Counts(results)
	fmt.Fprintf(out, "%d indexed, %d failed\n", ok, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d videos failed", failed, len(results))
	}
	return ctx.Err()
}

// readManifest accepts either a single video object or an array of them.
func readManifest(r io.Reader) ([]ingestuc.Video, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var items []manifestVideo
	if err := json.Unmarshal(raw, &items); err != nil {
		var one manifestVideo
		if err1 := json.Unmarshal(raw, &one); err1 != nil {
			return nil, fmt.Errorf("decode manifest: %w", err)
		}
		items = []manifestVideo{one}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("manifest has no videos")
	}

	videos := make([]ingestuc.Video, len(items))
	for i := range items {
		videos[i] = items[i].toIngest()
	}
	return videos, nil
}

func (m *manifestVideo) toIngest() ingestuc.Video {
	frames := make([]ingestuc.Frame, len(m.Frames))
	for i, f := range m.Frames {
		frames[i] = ingestuc.Frame{
			ID:          f.FrameID,
			Number:      f.FrameNumber,
			Timestamp:   f.Timestamp,
			StoragePath: f.FramePath,
			Vector:      f.Embedding,
		}
	}
	return ingestuc.Video{
		ID:       m.VideoID,
		Filename: m.OriginalFilename,
		Path:     m.VideoPath,
		Meta: domvideo.Meta{
			Duration:    m.Duration,
			FPS:         m.FPS,
			Width:       m.Width,
			Height:      m.Height,
			TotalFrames: m.TotalFrames,
		},
		Frames: frames,
	}
}

func printIngestResults(out io.Writer, results []dombatch.Result) {
	for i := range results {
		r := &results[i]
		if r.Err() != nil {
			fmt.Fprintf(out, "FAIL  %s: %v\n", displayID(r.ID()), r.Err())
			continue
		}
		fmt.Fprintf(out, "OK    %s (%d frames)\n", r.ID(), r.Frames())
	}
}

func displayID(id string) string {
	if id == "" {
		return "<new>"
	}
	return id
}
