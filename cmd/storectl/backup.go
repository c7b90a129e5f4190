package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/storectl/pkg/config"
)

var backupDest string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the bolt data file to a destination path",
	Long: `backup copies the embedded storage engine's data file somewhere
else before an upgrade. It does not rewrite the schema: the archive and
change-log layers already enforce their own versioning rules, and
general migration tooling beyond that is out of scope here. Run this
against a node that is not accepting writes, or against a follower's
snapshot; this command takes no lock of its own.`,
	RunE: runBackup,
}

func init() {
	backupCmd.Flags().StringVar(&backupDest, "dest", "", "Destination path for the backup copy (required)")
	backupCmd.MarkFlagRequired("dest")
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return runBackupWithConfig(cfg)
}

func runBackupWithConfig(cfg *config.Config) error {
	if cfg.Storage.Backend != "" && cfg.Storage.Backend != "bolt" {
		return fmt.Errorf("backup only supports the bolt backend, got %q", cfg.Storage.Backend)
	}

	src, err := os.ReadFile(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", cfg.Storage.Path, err)
	}
	if err := os.WriteFile(backupDest, src, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", backupDest, err)
	}
	fmt.Printf("backed up %s -> %s (%d bytes)\n", cfg.Storage.Path, backupDest, len(src))
	return nil
}
