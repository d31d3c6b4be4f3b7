package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"notioncal/internal/config"
	appLog "notioncal/internal/log"
	"notioncal/internal/reconcile"
	"notioncal/internal/schedule"
)

func newOnceCmd(flags *globalFlags) *cobra.Command {
	var (
		dryRun  bool
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single sync pass and exit",
		Long: `Run a single sync pass, print what was done and exit. The exit status is
non-zero if the pass failed. With --dry-run nothing is written to the
calendar; the planned actions are printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags, (*config.Config).Validate)
			if err != nil {
				return err
			}
			if dryRun {
				cfg.Sync.DryRun = true
			}

			rec, err := newReconciler(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			runner, err := schedule.New(rec, cfg.Sync.Schedule, cfg.PassTimeout())
			if err != nil {
				return err
			}

			res, err := runner.Trigger(cmd.Context())
			if res != nil {
				if jsonOut {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					if encErr := enc.Encode(res); encErr != nil {
						appLog.Error("failed to write result", encErr)
					}
				} else {
					printResult(cmd.OutOrStdout(), res)
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan the pass without changing the calendar")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	return cmd
}

func printResult(w io.Writer, res *reconcile.Result) {
	for _, a := range res.Actions {
		switch a.Kind {
		case reconcile.ActionCreate:
			fmt.Fprintf(w, "%-7s %-36s %s\n", a.Kind, a.RecordID, a.Title)
		default:
			fmt.Fprintf(w, "%-7s %-36s %s\n", a.Kind, a.EventID, a.Title)
		}
	}
	prefix := ""
	if res.DryRun {
		prefix = "dry run: "
	}
	fmt.Fprintf(w, "%s%d records, %d events: %d created, %d updated, %d deleted, %d unchanged, %d skipped\n",
		prefix, res.Records, res.Events, res.Created, res.Updated, res.Deleted, res.Unchanged, res.Skipped)
}
