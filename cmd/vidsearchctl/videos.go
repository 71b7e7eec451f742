package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	domvideo "github.com/kailas-cloud/vidsearch/internal/domain/video"
	videouc "github.com/kailas-cloud/vidsearch/internal/usecase/video"
)

var videosCmd = &cobra.Command{
	Use:   "videos",
	Short: "List indexed videos",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.SilenceUsage = true
		list, err := videouc.New(store.Videos, store.Frames).List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list videos: %w", err)
		}
		printVideos(cmd.OutOrStdout(), list)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <video_id>",
	Short: "Remove a video and all of its frames from the index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runDelete(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(videosCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(ctx context.Context, id string, out io.Writer) error {
	if err := videouc.New(store.Videos, store.Frames).Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	fmt.Fprintf(out, "Deleted %s\n", id)
	return nil
}

func printVideos(out io.Writer, list []domvideo.Video) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No videos indexed.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tFILENAME\tDURATION\tFRAMES\tCREATED")
	fmt.Fprintln(w, "--\t--------\t--------\t------\t-------")
	for _, v := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			v.ID(), v.Filename(), fmtSeconds(v.Meta().Duration), v.FramesIndexed(),
			time.UnixMilli(v.CreatedAt()).Local().Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

// fmtSeconds renders seconds as MM:SS.ss, or HH:MM:SS.ss from one hour on.
func fmtSeconds(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	h := int(sec) / 3600
	m := (int(sec) % 3600) / 60
	s := sec - float64(h*3600+m*60)
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%05.2f", h, m, s)
	}
	return fmt.Sprintf("%02d:%05.2f", m, s)
}
