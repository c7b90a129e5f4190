// Command storectl operates a storage-core node directly: running its
// background loops standalone for diagnostics, or performing the
// maintenance operations (compact, inspect, backup) an operator needs
// without going through a protocol front-end.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/storectl/pkg/config"
	"github.com/cuemby/storectl/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "storectl",
	Short: "storectl operates a storage-core node",
	Long: `storectl runs and maintains the storage and cache core that a
multi-protocol mail and groupware server sits on top of: a transactional
key-value engine, a content-addressed blob store, a search index, an
access-token cache, a groupware resource cache, and a delayed-task queue.

It does not speak SMTP, IMAP, JMAP, or DAV itself; those protocol
front-ends are separate processes that link against this core as a
library.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"storectl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	config.BindFlags(rootCmd)

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(compactCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(backupCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyFlags(cmd)
	return cfg, nil
}

func initLogging() {
	cfg, err := loadConfig(rootCmd)
	if err != nil {
		log.Init(log.Config{Level: log.InfoLevel})
		return
	}
	log.Init(log.Config{
		Level:      log.Level(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
	})
}
