package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config holds the full runtime configuration for a storectl node.
type Config struct {
	NodeID   string `yaml:"nodeID"`
	DataDir  string `yaml:"dataDir"`
	BindAddr string `yaml:"bindAddr"`

	Log LogConfig `yaml:"log"`

	Storage      StorageConfig      `yaml:"storage"`
	Batch        BatchConfig        `yaml:"batch"`
	Blob         BlobConfig         `yaml:"blob"`
	SearchIndex  SearchIndexConfig  `yaml:"searchIndex"`
	AccessToken  AccessTokenConfig  `yaml:"accessToken"`
	TaskQueue    TaskQueueConfig    `yaml:"taskQueue"`
	StateManager StateManagerConfig `yaml:"stateManager"`

	MetricsAddr string `yaml:"metricsAddr"`
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// StorageConfig selects and configures the storage engine backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "bolt" or "memory"
	Path    string `yaml:"path"`
}

// BatchConfig controls the transaction engine's commit retry behavior.
type BatchConfig struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	MaxDuration time.Duration `yaml:"maxDuration"`
}

// BlobConfig controls the content-addressed blob store and its sweeper.
type BlobConfig struct {
	Path          string        `yaml:"path"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
	LinkTTL       time.Duration `yaml:"linkTTL"`
}

// SearchIndexConfig controls the reconciliation loop that keeps the
// search index current with the change log.
type SearchIndexConfig struct {
	ReconcileInterval time.Duration `yaml:"reconcileInterval"`
}

// AccessTokenConfig controls the access-token cache.
type AccessTokenConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// TaskQueueConfig controls lease duration, dispatch polling and the
// reaper that reclaims expired leases.
type TaskQueueConfig struct {
	LeaseDuration  time.Duration `yaml:"leaseDuration"`
	PollInterval   time.Duration `yaml:"pollInterval"`
	ReapInterval   time.Duration `yaml:"reapInterval"`
	MaxAttempts    int           `yaml:"maxAttempts"`
	WorkerPoolSize int           `yaml:"workerPoolSize"`
}

// StateManagerConfig controls the pub/sub state-change dispatcher.
type StateManagerConfig struct {
	SendTimeout   time.Duration `yaml:"sendTimeout"`
	PurgeInterval time.Duration `yaml:"purgeInterval"`
}

// Default returns a Config with the storage core's defaults filled in.
func Default() *Config {
	return &Config{
		DataDir:  "./data",
		BindAddr: "127.0.0.1:7070",
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
		Storage: StorageConfig{
			Backend: "bolt",
			Path:    "./data/store.db",
		},
		Batch: BatchConfig{
			MaxAttempts: 10,
			MaxDuration: 10 * time.Second,
		},
		Blob: BlobConfig{
			Path:          "./data/blobs",
			SweepInterval: 10 * time.Minute,
			LinkTTL:       24 * time.Hour,
		},
		SearchIndex: SearchIndexConfig{
			ReconcileInterval: 5 * time.Second,
		},
		AccessToken: AccessTokenConfig{
			TTL: time.Hour,
		},
		TaskQueue: TaskQueueConfig{
			LeaseDuration:  30 * time.Second,
			PollInterval:   5 * time.Second,
			ReapInterval:   time.Minute,
			MaxAttempts:    5,
			WorkerPoolSize: 4,
		},
		StateManager: StateManagerConfig{
			SendTimeout:   500 * time.Millisecond,
			PurgeInterval: time.Hour,
		},
		MetricsAddr: ":9090",
	}
}

// Load reads a YAML configuration file, layering it over the defaults.
// A missing file is not an error: the defaults are returned as-is, the
// same forgiving behavior the teacher's apply command uses for an
// absent --file flag's optional sibling resources.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// BindFlags registers the global flags that override file configuration,
// mirroring the persistent flags the teacher CLI attaches to its root
// command.
func BindFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cmd.PersistentFlags().String("data-dir", "", "Data directory for storage and blob backends")
	cmd.PersistentFlags().String("storage-backend", "", "Storage engine backend (bolt, memory)")
	cmd.PersistentFlags().String("metrics-addr", "", "Address to serve /metrics on")
}

// ApplyFlags overrides cfg fields with any flags the caller actually set.
func (cfg *Config) ApplyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("storage-backend") {
		cfg.Storage.Backend, _ = flags.GetString("storage-backend")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
}
