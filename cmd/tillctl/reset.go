package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// confirmPhrase must be typed exactly; the lifecycle service performs no
// confirmation of its own.
const confirmPhrase = "ERASE ALL DATA"

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Destroy transactional data after taking an emergency backup",
	Long: fmt.Sprintf(`Destroy transactional data after taking an emergency backup.

An emergency backup of the complete store is written to the snapshot
archive before the first delete. Open tables and the menu are retained.
You will be asked to type %q to proceed.`, confirmPhrase),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "This permanently deletes shifts, receipts, inventory and staff.\nType %q to continue: ", confirmPhrase)
		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		if strings.TrimSpace(line) != confirmPhrase {
			fmt.Fprintln(cmd.OutOrStdout(), "confirmation did not match, nothing was deleted")
			return nil
		}

		svc := getService(cmd)
		var runErr error
		svc.Reset(cmd.Context(),
			func(message string) { fmt.Fprintln(cmd.OutOrStdout(), message) },
			func() { fmt.Fprintln(cmd.OutOrStdout(), "reset complete") },
			func(err error) { runErr = err },
		)
		return runErr
	},
}
