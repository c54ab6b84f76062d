package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore the store from a snapshot envelope file",
	Long: `Restore the store from a snapshot envelope file.

Writes are full replaces by document id, applied in atomic chunks. A
failure mid-import leaves earlier chunks committed; rerunning the same
import is safe because writes are not additive.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		svc := getService(cmd)
		summary, err := svc.Import(cmd.Context(), raw, func(message string) {
			fmt.Fprintln(cmd.OutOrStdout(), message)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "restored %d records across %d collections in %d batches\n",
			summary.Records, summary.Collections, summary.Batches)
		for _, skipped := range summary.Skipped {
			fmt.Fprintf(cmd.OutOrStdout(), "warning: skipped record without id: %s\n", skipped)
		}
		return nil
	},
}
