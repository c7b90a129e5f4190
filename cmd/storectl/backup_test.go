package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/storectl/pkg/config"
)

func TestRunBackupWithConfig_CopiesDataFileToDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "store.db")
	if err := os.WriteFile(src, []byte("fake bolt contents"), 0o600); err != nil {
		t.Fatalf("write src: %v", err)
	}

	backupDest = filepath.Join(dir, "store.db.backup")
	cfg := config.Default()
	cfg.Storage.Backend = "bolt"
	cfg.Storage.Path = src

	if err := runBackupWithConfig(cfg); err != nil {
		t.Fatalf("runBackupWithConfig() error = %v", err)
	}

	got, err := os.ReadFile(backupDest)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(got) != "fake bolt contents" {
		t.Fatalf("backup contents = %q, want %q", got, "fake bolt contents")
	}
}

func TestRunBackupWithConfig_RejectsNonBoltBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "memory"

	if err := runBackupWithConfig(cfg); err == nil {
		t.Fatal("runBackupWithConfig() error = nil, want an error for the memory backend")
	}
}
