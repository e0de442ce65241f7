package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	undoEntryID string
	undoFile    string
	undoBulkID  string
)

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Reverse recorded moves",
	Long: `Reverse a recorded move by returning the file from its destination
back to its source folder. A successful undo removes the entry from
history; a failed undo keeps it so the move can be retried.`,
	Example: `  notemover undo --entry 4f3c2a1b-...
  notemover undo --file meeting.md
  notemover undo --bulk 9d8e7f6a-...`,
	Args: cobra.NoArgs,
	RunE: runUndo,
}

func init() {
	rootCmd.AddCommand(undoCmd)
	undoCmd.Flags().StringVar(&undoEntryID, "entry", "", "Undo the entry with this ID")
	undoCmd.Flags().StringVar(&undoFile, "file", "", "Undo the most recent move of this file name")
	undoCmd.Flags().StringVar(&undoBulkID, "bulk", "", "Undo every entry of this bulk operation")
}

func runUndo(cmd *cobra.Command, args []string) error {
	set := 0
	for _, v := range []string{undoEntryID, undoFile, undoBulkID} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("specify exactly one of --entry, --file or --bulk")
	}

	var (
		ok     bool
		target string
	)
	switch {
	case undoEntryID != "":
		ok = apiClient.Ledger.UndoEntry(undoEntryID)
		target = undoEntryID
	case undoFile != "":
		ok = apiClient.Ledger.UndoLastMove(undoFile)
		target = undoFile
	case undoBulkID != "":
		ok = apiClient.Ledger.UndoBulkOperation(undoBulkID)
		target = undoBulkID
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"target": target,
			"undone": ok,
		})
	}

	if !ok {
		printError("Undo failed for %s", target)
		return fmt.Errorf("undo failed")
	}
	printSuccess("Undid move of %s", target)
	return nil
}
