package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/notemover/notemover/internal/client"
	"github.com/notemover/notemover/internal/config"
	"github.com/notemover/notemover/internal/events"
)

var rootCmd = &cobra.Command{
	Use:   "notemover",
	Short: "Rule-based note organizer with reversible move history",
	Long: `Notemover evaluates user-defined rules against a vault of Markdown
notes and moves each matching note to its rule's destination folder.

Every move is recorded in a reversible history ledger supporting single,
bulk and periodic undo with retention-based cleanup.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	cfgPath    string
	jsonOutput bool
	verbose    bool

	cfg       *config.Config
	logger    *events.Logger
	apiClient *client.Client
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		"Config file path (default: notemover.json in standard locations)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	cobra.OnInitialize(initClient)
}

func initClient() {
	var err error

	cfg, err = config.NewLoader(cfgPath).Load()
	if err != nil {
		printError("Configuration error: %v", err)
		os.Exit(1)
	}

	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err = events.NewLogger(&cfg.Log)
	if err != nil {
		printError("Logger error: %v", err)
		os.Exit(1)
	}
	events.SetDefault(logger)

	if err := cfg.EnsureDirectories(); err != nil {
		printError("Setup error: %v", err)
		os.Exit(1)
	}

	apiClient, err = client.New(cfg, logger)
	if err != nil {
		printError("Startup error: %v", err)
		os.Exit(1)
	}
}

func main() {
	defer func() {
		if apiClient != nil {
			_ = apiClient.Close()
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

// Print helpers

func printSuccess(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(os.Stdout, format+"\n", args...)
}

func printWarning(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(os.Stderr, format+"\n", args...)
}

func printError(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, format+"\n", args...)
}

func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format+"\n", args...)
}
