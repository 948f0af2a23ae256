package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/converge/pkg/config"
	"github.com/cuemby/converge/pkg/diag"
	"github.com/cuemby/converge/pkg/log"
	"github.com/cuemby/converge/pkg/manifest"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Logger.Error().Err(err).Msg("converge failed")
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "converge",
	Short: "Converge - declarative Consul and Nomad configuration",
	Long: `Converge reconciles Consul and Nomad resources (ACL policies and tokens,
intentions, namespaces, CSI volumes, jobs and scheduler settings) against
a YAML manifest, touching only what has drifted.

Each document yields one JSON record on stdout; logs go to stderr.`,
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		jsonOutput, _ := cmd.Flags().GetBool("log-json")
		log.Init(log.Config{
			Level:      log.ParseLevel(level),
			JSONOutput: jsonOutput,
		})
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Converge version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")
	registerConnectionFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(historyCmd)
}

func registerConnectionFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("consul-addr", "", "Consul HTTP address (default $CONSUL_HTTP_ADDR)")
	cmd.PersistentFlags().String("consul-token", "", "Consul management token (default $CONSUL_HTTP_TOKEN)")
	cmd.PersistentFlags().String("nomad-addr", "", "Nomad HTTP address (default $NOMAD_ADDR)")
	cmd.PersistentFlags().String("nomad-token", "", "Nomad management token (default $NOMAD_TOKEN)")
	cmd.PersistentFlags().Int("timeout", 0, "Per-request timeout in seconds (default 10)")
	cmd.PersistentFlags().Bool("insecure-skip-verify", false, "Do not validate TLS certificates")
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// connectionDefaults turns the global connection flags into per-system
// defaults that sit between document overrides and the environment
func connectionDefaults(cmd *cobra.Command) map[config.System]config.Params {
	consulAddr, _ := cmd.Flags().GetString("consul-addr")
	consulToken, _ := cmd.Flags().GetString("consul-token")
	nomadAddr, _ := cmd.Flags().GetString("nomad-addr")
	nomadToken, _ := cmd.Flags().GetString("nomad-token")

	shared := config.Params{}
	if cmd.Flags().Changed("timeout") {
		timeout, _ := cmd.Flags().GetInt("timeout")
		shared.ConnectionTimeoutSeconds = &timeout
	}
	if cmd.Flags().Changed("insecure-skip-verify") {
		skip, _ := cmd.Flags().GetBool("insecure-skip-verify")
		validate := !skip
		shared.ValidateCerts = &validate
	}

	return map[config.System]config.Params{
		config.SystemConsul: shared.Merge(config.Params{URL: consulAddr, ManagementToken: consulToken}),
		config.SystemNomad:  shared.Merge(config.Params{URL: nomadAddr, ManagementToken: nomadToken}),
	}
}

// newConnections builds the connection cache shared by every document of a
// run, along with the diagnostic sink it writes to
func newConnections(cmd *cobra.Command) (*manifest.Connections, func() error, error) {
	sink, closeSink, err := diag.FromEnv(os.Getenv)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open diagnostic log: %w", err)
	}
	if diag.Enabled(os.Getenv) {
		log.Logger.Warn().
			Str("path", diag.DefaultPath).
			Msg("Diagnostic request logging enabled; the file may contain secrets")
	}

	return &manifest.Connections{
		Defaults: connectionDefaults(cmd),
		Getenv:   os.Getenv,
		Sink:     sink,
	}, closeSink, nil
}
