/*
Package log provides structured logging for converge using zerolog.

The log package wraps zerolog with a package-level logger, configurable levels,
and helpers that attach the context converge cares about: the component doing
the work, the run a reconciliation belongs to, and the resource being reconciled.

# Output

converge prints its result records on stdout so they can be piped into other
tools. Logs therefore go to stderr unless Config.Output says otherwise.

JSON Format:

	{"level":"info","kind":"NomadNamespace","resource":"apps","action":"create","time":"2026-10-19T10:30:00Z","message":"reconciled"}

Console Format:

	2026-10-19T10:30:00Z INF reconciled action=create kind=NomadNamespace resource=apps

# Usage

Initializing the Logger:

	log.Init(log.Config{
		Level:      log.ParseLevel(levelFlag),
		JSONOutput: jsonFlag,
	})

Context Loggers:

	logger := log.WithResource("ConsulACLPolicy", "readers")
	logger.Info().Str("action", "update").Msg("reconciled")

	runLog := log.WithRunID(runID)
	runLog.Debug().Int("documents", n).Msg("manifest loaded")

# Security

Management tokens are never logged. The request/response mirror in pkg/diag is
the only place request bodies are written, and it is off by default.
*/
package log
