package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run sync operations against the configured remote store",
}

var syncAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Push every local record to the remote store once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) (any, error) {
			return a.sync.SyncAll(ctx, "cli")
		})
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether sync is enabled and the remote store answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) (any, error) {
			return a.sync.Status(ctx), nil
		})
	},
}

var syncReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compare local and remote record counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) (any, error) {
			return a.sync.Report(ctx), nil
		})
	},
}

func init() {
	syncCmd.AddCommand(syncAllCmd, syncStatusCmd, syncReportCmd)
	rootCmd.AddCommand(syncCmd)
}

// withApp wires the backends, runs fn once and prints its result as JSON.
func withApp(ctx context.Context, fn func(context.Context, *app) (any, error)) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := fn(ctx, a)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
