package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tillcore/internal/archive"
	"tillcore/internal/lifecycle"
	"tillcore/internal/store"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type contextKey string

const (
	svcKey  contextKey = "service"
	archKey contextKey = "archive"
)

var rootCmd = &cobra.Command{
	Use:     "tillctl",
	Short:   "Data lifecycle tooling for the tillcore point-of-sale store",
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		docStore, err := store.Open(ctx)
		if err != nil {
			return fmt.Errorf("open document store: %w", err)
		}
		snapArchive, err := archive.Open(ctx)
		if err != nil {
			return fmt.Errorf("open snapshot archive: %w", err)
		}
		// Metrics recorder is per invocation, discarded with the process.
		svc, err := lifecycle.NewService(docStore, snapArchive, lifecycle.DefaultSchema(),
			lifecycle.WithMetricsRecorder(lifecycle.NewExpvarMetricsRecorder("")))
		if err != nil {
			return err
		}
		ctx = context.WithValue(ctx, svcKey, svc)
		ctx = context.WithValue(ctx, archKey, snapArchive)
		cmd.SetContext(ctx)
		return nil
	},
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	rootCmd.AddCommand(exportCmd, importCmd, resetCmd, archiveCmd)
}

func getService(cmd *cobra.Command) *lifecycle.Service {
	svc, _ := cmd.Context().Value(svcKey).(*lifecycle.Service)
	return svc
}

func getArchive(cmd *cobra.Command) archive.Store {
	st, _ := cmd.Context().Value(archKey).(archive.Store)
	return st
}

// Execute runs the root command and returns an exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tillctl: %v\n", err)
		return 1
	}
	return 0
}
