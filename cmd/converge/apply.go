package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cuemby/converge/pkg/journal"
	"github.com/cuemby/converge/pkg/log"
	"github.com/cuemby/converge/pkg/manifest"
	"github.com/cuemby/converge/pkg/metrics"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Reconcile every document of a manifest",
	Long: `Apply reads a multi-document YAML manifest and reconciles each document
in order. One JSON record per document is written to stdout.

The first failing document stops the run with a non-zero exit code;
documents before it stay applied.

Example manifest:

  kind: NomadNamespace
  spec:
    name: apps
    description: Application workloads
  ---
  kind: NomadJob
  spec:
    hcl: |
      job "web" { ... }`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "Manifest file (- for stdin)")
	applyCmd.Flags().String("journal", "", "Directory of the run history database (disabled if empty)")
	applyCmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	_ = applyCmd.MarkFlagRequired("file")
}

func runApply(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	journalDir, _ := cmd.Flags().GetString("journal")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	docs, err := manifest.ReadFile(file)
	if err != nil {
		return err
	}

	conns, closeSink, err := newConnections(cmd)
	if err != nil {
		return err
	}
	defer closeSink()

	var store journal.Store
	if journalDir != "" {
		bolt, err := journal.NewBoltStore(journalDir)
		if err != nil {
			return err
		}
		defer bolt.Close()
		store = bolt
	}

	if metricsFile != "" {
		defer func() {
			if err := metrics.WriteTextfile(metricsFile); err != nil {
				log.Logger.Warn().Err(err).Str("path", metricsFile).Msg("Failed to write metrics textfile")
			}
		}()
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ApplyDuration)

	ctx, cancel := signalContext()
	defer cancel()

	runID := journal.NewRunID()
	logger := log.WithRunID(runID)
	logger.Info().Str("file", file).Int("documents", len(docs)).Msg("Starting apply")

	out := json.NewEncoder(os.Stdout)
	changed := 0
	for _, doc := range docs {
		result, applyErr := manifest.Apply(ctx, doc, conns)

		if store != nil {
			if err := store.Append(journal.FromResult(runID, doc.Index, doc.Kind, result, applyErr)); err != nil {
				logger.Warn().Err(err).Msg("Failed to record journal entry")
			}
		}

		if applyErr != nil {
			metrics.ResourcesChanged.Set(float64(changed))
			logger.Debug().Int("changed", changed).Msg("Apply stopped")
			return applyErr
		}

		if result.Changed {
			changed++
		}
		if err := out.Encode(result.Record()); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}

	metrics.ResourcesChanged.Set(float64(changed))
	logger.Info().Int("changed", changed).Int("documents", len(docs)).Msg("Apply complete")
	return nil
}
