package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Drop and rebuild the vector index with the configured algorithm",
	Long: `Drops the frame vector index and creates it again from index.* settings.
Stored frames are kept; switch index.algorithm or the HNSW parameters and run
this to apply them. Searches fail with index unavailable until the rebuild
completes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.SilenceUsage = true
		return runReindex(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(ctx context.Context, out io.Writer) error {
	if err := store.Frames.Reindex(ctx); err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	st, err := store.Frames.Stats(ctx)
	if err != nil {
		return fmt.Errorf("index stats: %w", err)
	}
	fmt.Fprintf(out, "Rebuilt %s index (%s), %d frames\n", store.Driver, cfg.Index.Algorithm, st.Frames)
	return nil
}
