package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cuemby/converge/pkg/client"
	"github.com/cuemby/converge/pkg/config"
	"github.com/cuemby/converge/pkg/consul"
	"github.com/cuemby/converge/pkg/nomad"
	"github.com/cuemby/converge/pkg/reconciler"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Read remote state without changing it",
}

var getConsulTokenCmd = &cobra.Command{
	Use:   "consul-token ACCESSOR_ID",
	Short: "Show a Consul ACL token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGet(cmd, config.SystemConsul, func(ctx context.Context, c *client.Client) (*reconciler.Result, error) {
			return consul.GetToken(ctx, c, args[0])
		})
	},
}

var getConsulServiceCmd = &cobra.Command{
	Use:   "consul-service NAME",
	Short: "Show the catalog instances of a Consul service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGet(cmd, config.SystemConsul, func(ctx context.Context, c *client.Client) (*reconciler.Result, error) {
			return consul.ServiceDetail(ctx, c, args[0])
		})
	},
}

var getNomadJobParseCmd = &cobra.Command{
	Use:   "nomad-job-parse",
	Short: "Parse a Nomad job file into its JSON form",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		namespace, _ := cmd.Flags().GetString("namespace")

		hcl, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read job file: %w", err)
		}

		return runGet(cmd, config.SystemNomad, func(ctx context.Context, c *client.Client) (*reconciler.Result, error) {
			return nomad.JobParse(ctx, c, namespace, string(hcl))
		})
	},
}

func init() {
	getNomadJobParseCmd.Flags().StringP("file", "f", "", "Job file in HCL")
	getNomadJobParseCmd.Flags().String("namespace", "", "Nomad namespace (default \"default\")")
	_ = getNomadJobParseCmd.MarkFlagRequired("file")

	getCmd.AddCommand(getConsulTokenCmd)
	getCmd.AddCommand(getConsulServiceCmd)
	getCmd.AddCommand(getNomadJobParseCmd)
}

func runGet(cmd *cobra.Command, sys config.System, fn func(context.Context, *client.Client) (*reconciler.Result, error)) error {
	conns, closeSink, err := newConnections(cmd)
	if err != nil {
		return err
	}
	defer closeSink()

	c, err := conns.Connect(sys, config.Params{})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := fn(ctx, c)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(result.Record())
}
