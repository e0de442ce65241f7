package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/notemover/notemover/internal/models"
)

var (
	organizeAll    bool
	organizeDryRun bool
)

var organizeCmd = &cobra.Command{
	Use:   "organize [note-path]",
	Short: "Move notes to their rule destinations",
	Long: `Evaluate rules against one note or the whole vault and move each
matching note to its destination folder. The first matching rule wins.

With --dry-run the command reports what would move without touching
any files or recording history.`,
	Example: `  notemover organize inbox/meeting.md
  notemover organize --all
  notemover organize --all --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOrganize,
}

func init() {
	rootCmd.AddCommand(organizeCmd)
	organizeCmd.Flags().BoolVar(&organizeAll, "all", false, "Organize every note in the vault")
	organizeCmd.Flags().BoolVar(&organizeDryRun, "dry-run", false, "Report moves without performing them")
}

func runOrganize(cmd *cobra.Command, args []string) error {
	if !organizeAll && len(args) == 0 {
		return fmt.Errorf("provide a note path or use --all")
	}
	if organizeAll && len(args) > 0 {
		return fmt.Errorf("--all cannot be combined with a note path")
	}

	apiClient.Organizer.SetDryRun(organizeDryRun)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if organizeAll {
		return runOrganizeAll(ctx)
	}
	return runOrganizeOne(ctx, args[0])
}

func runOrganizeOne(ctx context.Context, notePath string) error {
	result := apiClient.Organizer.OrganizeFile(ctx, notePath)

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	switch {
	case result.Error != "":
		printError("Failed: %s (%s)", result.Note, result.Error)
		return fmt.Errorf("organize failed")
	case result.Moved && organizeDryRun:
		printInfo("Would move %s -> %s", result.Note, result.NewPath)
	case result.Moved:
		printSuccess("Moved %s -> %s", result.Note, result.NewPath)
	case result.Skipped:
		printInfo("Already in place: %s", result.Note)
	default:
		printInfo("No rule matched: %s", result.Note)
	}
	return nil
}

func runOrganizeAll(ctx context.Context) error {
	sweep, err := apiClient.Organizer.OrganizeAll(ctx, models.OperationBulk)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(sweep)
	}

	for _, r := range sweep.Results {
		switch {
		case r.Error != "":
			printError("Failed: %s (%s)", r.Note, r.Error)
		case r.Moved && organizeDryRun:
			printInfo("Would move %s -> %s", r.Note, r.NewPath)
		case r.Moved:
			printSuccess("Moved %s -> %s", r.Note, r.NewPath)
		}
	}

	verb := "moved"
	if organizeDryRun {
		verb = "would move"
	}
	printInfo("Scanned %d notes, %s %d, %d failed", sweep.Scanned, verb, sweep.Moved, sweep.Failed)
	if sweep.Failed > 0 {
		return fmt.Errorf("%d notes failed to move", sweep.Failed)
	}
	return nil
}
