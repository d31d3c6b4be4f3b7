package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"notioncal/internal/config"
	"notioncal/internal/model"
	"notioncal/internal/reconcile"
)

func newInspectCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <page-id>",
		Short: "Show how one Notion page maps to a calendar event",
		Long: `Retrieve a single Notion page, reduce it the way a sync pass does and
print both the record and the event it would produce. Only Notion
credentials are needed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags, (*config.Config).ValidateNotion)
			if err != nil {
				return err
			}
			opts, err := cfg.SyncOptions()
			if err != nil {
				return err
			}

			rec, err := newFetcher(cfg).Record(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printInspect(cmd.OutOrStdout(), rec, reconcile.BuildEvent(rec, opts.Presentation))
			return nil
		},
	}
}

func printInspect(w io.Writer, rec model.SourceRecord, ev model.TargetEvent) {
	opt := func(s *string) string {
		if s == nil {
			return "(unset)"
		}
		return fmt.Sprintf("%q", *s)
	}
	fmt.Fprintln(w, "record")
	fmt.Fprintf(w, "  id:        %s\n", rec.ID)
	fmt.Fprintf(w, "  name:      %s\n", opt(rec.Name))
	fmt.Fprintf(w, "  course:    %s\n", opt(rec.Course))
	fmt.Fprintf(w, "  date:      %s\n", opt(rec.Date))
	fmt.Fprintf(w, "  time_zone: %s\n", opt(rec.TimeZone))
	fmt.Fprintf(w, "  status:    %s\n", opt(rec.Status))

	kind := "timed"
	if ev.Start.AllDay() {
		kind = "all-day"
	}
	fmt.Fprintln(w, "event")
	fmt.Fprintf(w, "  title:       %q\n", ev.Title)
	fmt.Fprintf(w, "  description: %s\n", ev.Description)
	fmt.Fprintf(w, "  start/end:   %s (%s)\n", ev.Start, kind)
}
