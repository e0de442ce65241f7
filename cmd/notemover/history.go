package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notemover/notemover/internal/models"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and maintain the move history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded moves, newest first",
	Example: `  notemover history list
  notemover history list --limit 10 --json`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all history entries",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var historySweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove entries older than the retention policy",
	Long: `Remove history entries older than the configured retention policy.
Bulk operations whose entries were all swept are removed as well.`,
	Args: cobra.NoArgs,
	RunE: runHistorySweep,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historySweepCmd)

	historyListCmd.Flags().IntVar(&historyLimit, "limit", 0, "Show at most N entries (0 = all)")
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	entries := apiClient.Ledger.GetHistory()
	if historyLimit > 0 && len(entries) > historyLimit {
		entries = entries[:historyLimit]
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(struct {
			History        []*models.HistoryEntry  `json:"history"`
			BulkOperations []*models.BulkOperation `json:"bulkOperations"`
		}{entries, apiClient.Ledger.GetBulkOperations()})
	}

	if len(entries) == 0 {
		printInfo("No history entries")
		return nil
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %s -> %s", e.Timestamp.Format("2006-01-02 15:04:05"),
			e.SourcePath, e.DestinationPath)
		if e.BulkOperationID != "" {
			line += fmt.Sprintf("  [%s %s]", e.OperationType, shortID(e.BulkOperationID))
		}
		printInfo("%s  (%s)", line, shortID(e.ID))
	}
	printInfo("%d entries", len(entries))
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	count := len(apiClient.Ledger.GetHistory())
	apiClient.Ledger.ClearHistory()

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(map[string]int{"cleared": count})
	}
	printSuccess("Cleared %d history entries", count)
	return nil
}

func runHistorySweep(cmd *cobra.Command, args []string) error {
	removed := apiClient.Ledger.Sweep(apiClient.RetentionPolicy())

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(map[string]int{"removed": removed})
	}
	if removed == 0 {
		printInfo("Nothing to sweep")
	} else {
		printSuccess("Swept %d expired entries", removed)
	}
	return nil
}

// shortID trims a UUID to its first segment for display.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
