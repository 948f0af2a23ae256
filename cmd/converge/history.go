package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cuemby/converge/pkg/journal"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded apply runs",
	Long: `History lists the entries recorded by "converge apply --journal".
Remote objects are never journaled; only the outcome of each document is.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("journal")
		runID, _ := cmd.Flags().GetString("run")
		limit, _ := cmd.Flags().GetInt("limit")
		output, _ := cmd.Flags().GetString("output")

		store, err := journal.NewBoltStore(dir)
		if err != nil {
			return err
		}
		defer store.Close()

		var entries []*journal.Entry
		if runID != "" {
			entries, err = store.ListRun(runID)
		} else {
			entries, err = store.List(limit)
		}
		if err != nil {
			return err
		}

		switch output {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			for _, e := range entries {
				if err := enc.Encode(e); err != nil {
					return err
				}
			}
			return nil
		case "table":
			return printEntries(os.Stdout, entries)
		default:
			return fmt.Errorf("unknown output format %q (want table or json)", output)
		}
	},
}

func init() {
	historyCmd.Flags().String("journal", "", "Directory of the run history database")
	historyCmd.Flags().String("run", "", "Only show entries of this run")
	historyCmd.Flags().Int("limit", 50, "Maximum number of entries to show")
	historyCmd.Flags().StringP("output", "o", "table", "Output format (table, json)")
	_ = historyCmd.MarkFlagRequired("journal")
}

func printEntries(w io.Writer, entries []*journal.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No entries recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tRUN\tSEQ\tKIND\tNAME\tACTION\tCHANGED\tDETAIL")
	for _, e := range entries {
		detail := e.Error
		if detail == "" && len(e.Diff) > 0 {
			detail = "diff: " + strings.Join(e.Diff, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%t\t%s\n",
			e.Time.Local().Format("2006-01-02 15:04:05"),
			shortRunID(e.RunID),
			e.Seq,
			e.Kind,
			orDash(e.Name),
			orDash(e.Action),
			e.Changed,
			detail,
		)
	}
	return tw.Flush()
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
