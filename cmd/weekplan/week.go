package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weekplan/internal/model"
	"weekplan/internal/render"
	"weekplan/internal/weekdate"
)

func weekCmd(e *env) *cobra.Command {
	var wf weekFlags
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the merged tasks of one ISO week",
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, week, err := wf.resolve()
			if err != nil {
				return err
			}
			view := e.app.Agenda.Week(year, week)
			out := cmd.OutOrStdout()

			if e.flags.jsonOut {
				days := make(map[string][]model.TaskView, len(view.Days))
				for _, d := range view.Days {
					days[d.Key] = d.Views()
				}
				return printJSON(out, map[string]any{"year": year, "week": week, "days": days})
			}

			lb := render.LabelsFor(e.app.Locale())
			fmt.Fprintf(out, "%s, %s (%d)\n", lb.Title, fmt.Sprintf(lb.WeekLabel, week), year)
			for i, d := range view.Days {
				fmt.Fprintf(out, "\n%s %s\n", lb.DayName[i], weekdate.ShortDate(d.Date))
				if len(d.Tasks) == 0 {
					fmt.Fprintf(out, "  %s\n", lb.Free)
					continue
				}
				for _, t := range d.Tasks {
					printTask(cmd, t)
				}
			}
			return nil
		},
	}
	wf.register(cmd)
	return cmd
}

func printTask(cmd *cobra.Command, t model.Task) {
	s := t.Fields()
	label := render.NormalizeTimeLabel(s.StartTime + " - " + s.EndTime)
	switch tt := t.(type) {
	case model.ImportedTask:
		fmt.Fprintf(cmd.OutOrStdout(), "  %-11s  %s  [%s]\n", label, s.Description, tt.TaskID())
	case model.LocalTask:
		fmt.Fprintf(cmd.OutOrStdout(), "  %-11s  %s  (%s)\n", label, s.Description, tt.ID)
	}
}
