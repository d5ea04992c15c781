/*
Package log provides structured logging for the controller using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│  Global Logger (zerolog.Logger, initialized via Init)     │
	│                     │                                      │
	│  Configuration: Level, JSON vs console, Output writer      │
	│                     │                                      │
	│  Context loggers: WithComponent / WithShard / WithNode     │
	└────────────────────────────────────────────────────────────┘

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})
	log.Info("controller starting")

	reconcileLog := log.WithComponent("reconciler").With().
		Str("shard_id", shardID.String()).Logger()
	reconcileLog.Info().Msg("reconcile attempt started")

	log.Logger.Error().Err(err).Uint64("node_id", uint64(nodeID)).Msg("rpc failed")

# Best practices

Do:
  - Use Info level in production, structured fields for queryable data
  - Create component-specific loggers and pass them down
  - Log errors with .Err() so stack context is preserved

Don't:
  - Log secrets (API tokens, bearer credentials)
  - Concatenate strings into a message; use typed fields instead
*/
package log
