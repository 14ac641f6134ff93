package main

import (
	"fmt"
	"os"

	"github.com/cuemby/triplestore/pkg/config"
	"github.com/cuemby/triplestore/pkg/log"
	"github.com/cuemby/triplestore/pkg/revision"
	"github.com/cuemby/triplestore/pkg/store"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "revstore",
	Short:   "revstore - a versioned triple store engine",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("revstore version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("data-dir", "./data", "Data directory for the bolt database")
	rootCmd.PersistentFlags().String("config", "", "Optional YAML config file overlaying env/defaults")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(timemapCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	flags := rootCmd.PersistentFlags()
	logLevel, _ := flags.GetString("log-level")
	logJSON, _ := flags.GetBool("log-json")

	// Flags given on the command line win; otherwise env/YAML config applies.
	configPath, _ := flags.GetString("config")
	if cfg, err := config.Load("REVSTORE_", configPath); err == nil {
		if !flags.Changed("log-level") {
			logLevel = cfg.LogLevel
		}
		if !flags.Changed("log-json") {
			logJSON = cfg.LogJSON
		}
	}

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

// openStore loads configuration and opens the revision store shared by
// every subcommand.
func openStore(cmd *cobra.Command) (*store.Store, *revision.Store, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load("REVSTORE_", configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if dataDir != "./data" {
		cfg.DataDir = dataDir
	}

	s, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return s, revision.Open(s, cfg), nil
}
