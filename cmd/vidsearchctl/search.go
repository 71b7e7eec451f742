package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vidsearch/internal/domain/search/request"
	"github.com/kailas-cloud/vidsearch/internal/domain/search/segment"
	searchuc "github.com/kailas-cloud/vidsearch/internal/usecase/search"
)

type searchOptions struct {
	VectorFile string
	VideoID    string
	TopK       int
	MinScore   float64
	Segments   bool
	Window     float64
	MergeGap   float64
}

var searchOpts searchOptions

var searchCmd = &cobra.Command{
	Use:   "search --vector-file <file>",
	Short: "Search frames by a precomputed query embedding",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.SilenceUsage = true
		return runSearch(cmd, searchOpts)
	},
}

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&searchOpts.VectorFile, "vector-file", "f", "", "JSON file holding the query vector (array of floats)")
	f.StringVar(&searchOpts.VideoID, "video", "", "Restrict the search to one video")
	f.IntVarP(&searchOpts.TopK, "k", "k", 0, "Number of results (default: search.default_top_k)")
	f.Float64Var(&searchOpts.MinScore, "min-score", 0, "Similarity floor (default: search.min_score)")
	f.BoolVar(&searchOpts.Segments, "segments", false, "Merge hits into time segments")
	f.Float64Var(&searchOpts.Window, "window", 0, "Segment window in seconds (default: search.segment_window)")
	f.Float64Var(&searchOpts.MergeGap, "merge-gap", 0, "Extra gap in seconds bridged when merging")
	_ = searchCmd.MarkFlagRequired("vector-file")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, opts searchOptions) error {
	vec, err := readVector(opts.VectorFile)
	if err != nil {
		return err
	}

	p := request.Params{
		TopK:          cfg.Search.DefaultTopK,
		MinScore:      *cfg.Search.MinScore,
		VideoID:       opts.VideoID,
		MergeSegments: opts.Segments,
		Window:        cfg.Search.SegmentWindow,
		MergeGap:      cfg.Search.MergeGap,
		MaxTopK:       cfg.Search.MaxTopK,
	}
	flags := cmd.Flags()
	if flags.Changed("k") {
		p.TopK = opts.TopK
	}
	if flags.Changed("min-score") {
		p.MinScore = opts.MinScore
	}
	if flags.Changed("window") {
		if opts.Window <= 0 {
			return fmt.Errorf("--window must be positive, got %v", opts.Window)
		}
		p.Window = opts.Window
	}
	if flags.Changed("merge-gap") {
		p.MergeGap = opts.MergeGap
	}

	req, err := request.NewVector(vec, p)
	if err != nil {
		return err
	}

	ranker := searchuc.NewRanker(store.Frames, searchuc.WithOverFetch(cfg.Search.OverFetchFactor))
	resp, err := searchuc.New(ranker, store.Videos, nil).SearchVector(cmd.Context(), &req)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	out := cmd.OutOrStdout()
	printResults(out, &resp)
	if resp.Summary != nil {
		printSegments(out, resp.Segments, resp.Summary)
	}
	return nil
}

func readVector(path string) ([]float32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vector file: %w", err)
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, fmt.Errorf("decode vector file: %w", err)
	}
	return vec, nil
}

func printResults(out io.Writer, resp *searchuc.Response) {
	if len(resp.Results) == 0 {
		fmt.Fprintln(out, "No matching frames.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "RANK\tSCORE\tVIDEO\tTIME\tFRAME")
	for i := range resp.Results {
		r := &resp.Results[i]
		fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\t%s\n",
			r.Rank(), r.Score(), r.VideoID(), fmtSeconds(r.Timestamp()), r.FrameID())
	}
	_ = w.Flush()
}

func printSegments(out io.Writer, segs []segment.Segment, sum *segment.Summary) {
	fmt.Fprintf(out, "\n%d segments, %s total, %d videos\n",
		sum.TotalSegments, fmtSeconds(sum.TotalDuration), sum.UniqueVideos)
	if len(segs) == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "VIDEO\tSTART\tEND\tBEST\tFRAMES\tBEST FRAME")
	for i := range segs {
		s := &segs[i]
		best := s.BestFrame()
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%d\t%s\n",
			s.VideoID(), fmtSeconds(s.Start()), fmtSeconds(s.End()), s.BestScore(), s.FrameCount(), best.FrameID())
	}
	_ = w.Flush()
}
