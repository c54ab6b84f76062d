package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full store into the snapshot archive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := getService(cmd)
		env, info, err := svc.Export(cmd.Context())
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		if out != "" {
			raw, err := env.Encode()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, raw, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
		}
		records := 0
		for _, col := range env.Data {
			records += len(col.Records)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d collections (%d records) to %s (%s)\n",
			len(env.Data), records, info.Key, humanize.Bytes(uint64(info.Size)))
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "", "Also write the envelope to a local file")
}
