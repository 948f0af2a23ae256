package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cuemby/converge/pkg/config"
	"github.com/cuemby/converge/pkg/health"
	"github.com/cuemby/converge/pkg/log"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that Consul and Nomad have a leader",
	Long: `Status asks each configured agent for its raft leader and prints one
JSON line per system. With --wait it keeps polling until every system is
healthy, which is useful before the first apply against a fresh cluster.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		systems, _ := cmd.Flags().GetStringSlice("system")
		wait, _ := cmd.Flags().GetBool("wait")
		interval, _ := cmd.Flags().GetDuration("interval")
		retries, _ := cmd.Flags().GetInt("retries")
		if err := validateStatusFlags(interval, retries); err != nil {
			return err
		}

		conns, closeSink, err := newConnections(cmd)
		if err != nil {
			return err
		}
		defer closeSink()

		ctx, cancel := signalContext()
		defer cancel()

		cfg := health.DefaultConfig()
		cfg.Interval = interval
		if wait {
			cfg.Retries = retries
		} else {
			cfg.Retries = 1
		}

		out := json.NewEncoder(os.Stdout)
		unhealthy := 0
		for _, name := range systems {
			sys := config.System(name)
			if sys != config.SystemConsul && sys != config.SystemNomad {
				return fmt.Errorf("unknown system %q (want consul or nomad)", name)
			}

			c, err := conns.Connect(sys, config.Params{})
			if err != nil {
				return err
			}

			result, err := health.Wait(ctx, health.NewLeaderChecker(c), cfg)
			if err != nil {
				unhealthy++
				log.Logger.Warn().Err(err).Str("system", name).Msg("System not healthy")
			}
			if err := out.Encode(result); err != nil {
				return fmt.Errorf("failed to write result: %w", err)
			}
		}

		if unhealthy > 0 {
			return fmt.Errorf("%d of %d systems not healthy", unhealthy, len(systems))
		}
		return nil
	},
}

func validateStatusFlags(interval time.Duration, retries int) error {
	if interval <= 0 {
		return fmt.Errorf("--interval must be positive, got %s", interval)
	}
	if retries < 1 {
		return fmt.Errorf("--retries must be at least 1, got %d", retries)
	}
	return nil
}

func init() {
	statusCmd.Flags().StringSlice("system", []string{string(config.SystemConsul), string(config.SystemNomad)}, "Systems to check")
	statusCmd.Flags().Bool("wait", false, "Poll until every system has a leader")
	statusCmd.Flags().Duration("interval", 2*time.Second, "Time between checks with --wait")
	statusCmd.Flags().Int("retries", 15, "Checks before giving up with --wait")

	rootCmd.AddCommand(statusCmd)
}
