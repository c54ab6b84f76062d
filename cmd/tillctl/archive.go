package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect the snapshot archive",
}

var archiveListCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List archived snapshots",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := getArchive(cmd)
		if st == nil {
			return fmt.Errorf("snapshot archive unavailable")
		}
		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		infos, err := st.List(cmd.Context(), prefix)
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no snapshots")
			return nil
		}
		for _, info := range infos {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n",
				info.Key, humanize.Bytes(uint64(info.Size)), humanize.Time(info.CreatedAt))
		}
		return nil
	},
}

func init() {
	archiveCmd.AddCommand(archiveListCmd)
}
