package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"weekplan/internal/calendar"
	appLog "weekplan/internal/log"
)

func sourceCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage iCalendar feed subscriptions",
	}
	cmd.AddCommand(
		sourceListCmd(e),
		sourceAddCmd(e),
		sourceSyncCmd(e),
		sourceSyncAllCmd(e),
		sourceRemoveCmd(e),
		importedCmd(e),
	)
	return cmd
}

func sourceListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List calendar sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := e.app.Calendar.Sources()
			if e.flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), list)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTASKS\tLAST SYNC\tURL")
			for _, s := range list {
				synced := "never"
				if s.LastSynced != nil {
					synced = s.LastSynced.Local().Format(time.DateTime)
				}
				n := len(e.app.Calendar.TasksForSource(s.ID))
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.ID, s.Name, n, synced, appLog.RedactURL(s.URL))
			}
			return tw.Flush()
		},
	}
}

func sourceAddCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "add <url> <name>",
		Short: "Subscribe to a public iCalendar feed and import it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, n, err := e.app.Calendar.AddAndSyncSource(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if e.flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{"source": src, "imported": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s): %d tasks imported\n", src.Name, src.ID, n)
			return nil
		},
	}
}

func sourceSyncCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <id>",
		Short: "Re-import one source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := e.app.Calendar.SyncSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %s: %d tasks\n", args[0], n)
			return nil
		},
	}
}

func sourceSyncAllCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-all",
		Short: "Re-import every source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sum := e.app.Calendar.SyncAllSources(cmd.Context())
			if e.flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), sum)
			}
			printSummary(cmd, sum)
			if len(sum.FailedSources) > 0 {
				return fmt.Errorf("%d of %d sources failed", len(sum.FailedSources), sum.TotalSources)
			}
			return nil
		},
	}
}

func printSummary(cmd *cobra.Command, sum calendar.SyncSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Synced %d/%d sources, %d tasks\n", sum.SuccessCount, sum.TotalSources, sum.TotalTasks)
	for _, name := range sum.FailedSources {
		fmt.Fprintf(out, "  failed: %s\n", name)
	}
}

func sourceRemoveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Unsubscribe and drop the source's imported tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Calendar.RemoveSource(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func importedCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imported",
		Short: "Inspect imported tasks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List imported tasks with their source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := e.app.Calendar.TasksWithSource()
			if e.flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), list)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tTIME\tDESCRIPTION\tSOURCE")
			for _, t := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\t%s\n", t.TaskID(), t.Date, t.StartTime, t.EndTime, t.Description, t.SourceName)
			}
			return tw.Flush()
		},
	}, &cobra.Command{
		Use:   "remove <id>",
		Short: "Hide one imported task until the next sync",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Calendar.RemoveImportedTaskByID(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	})
	return cmd
}
