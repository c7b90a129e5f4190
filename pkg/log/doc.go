/*
Package log provides structured logging for the storage core using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific child loggers, configurable log levels, and helper
functions for the logging patterns used throughout the storage engine,
task queue, and caches.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer    │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                    │          │
	│  │  - WithComponent("taskqueue")                │          │
	│  │  - WithAccount(accountID)                    │          │
	│  │  - WithTask(taskID)                          │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────────┘

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})

	taskLog := log.WithComponent("taskqueue").With().Uint32("account_id", accountID).Logger()
	taskLog.Info().Str("task_id", taskID).Msg("task leased")
	taskLog.Error().Err(err).Msg("task execution failed")

# Design notes

The global-logger pattern matches how every long-running loop in this
repository (blob sweep, task dispatcher, state manager, search index
worker) reaches its own child logger without threading a logger
through every constructor. Never log secret material (access-token
revisions, encryption keys, blob bytes) — only identifiers.
*/
package log
