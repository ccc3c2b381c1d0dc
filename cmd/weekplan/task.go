package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weekplan/internal/model"
	"weekplan/internal/tasks"
	"weekplan/internal/weekdate"
)

func taskCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Add, edit, move and delete tasks",
	}
	cmd.AddCommand(taskAddCmd(e), taskUpdateCmd(e), taskMoveCmd(e), taskDeleteCmd(e))
	return cmd
}

func taskAddCmd(e *env) *cobra.Command {
	var t model.LocalTask
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task; its week follows from --date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, week, err := weekdate.WeekOf(t.Date)
			if err != nil {
				return fmt.Errorf("%w: date %q", tasks.ErrInvalidTask, t.Date)
			}
			if t.EndTime == "" {
				t.EndTime = t.StartTime
			}
			added, err := e.app.Tasks.AddTask(year, week, t)
			if err != nil {
				return err
			}
			if e.flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), model.View(added))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s on %s %s-%s\n", added.ID, added.Date, added.StartTime, added.EndTime)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&t.Date, "date", "", "Date (YYYY-MM-DD)")
	f.StringVar(&t.StartTime, "start", "", "Start time (HH:MM)")
	f.StringVar(&t.EndTime, "end", "", "End time (HH:MM); equal to start for all-day")
	f.StringVar(&t.Description, "desc", "", "Description")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("desc")
	return cmd
}

func taskUpdateCmd(e *env) *cobra.Command {
	var wf weekFlags
	var date, start, end, desc string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, week, err := wf.resolve()
			if err != nil {
				return err
			}
			var patch tasks.TaskPatch
			f := cmd.Flags()
			if f.Changed("date") {
				patch.Date = &date
			}
			if f.Changed("start") {
				patch.StartTime = &start
			}
			if f.Changed("end") {
				patch.EndTime = &end
			}
			if f.Changed("desc") {
				patch.Description = &desc
			}
			if err := e.app.Tasks.UpdateTask(year, week, args[0], patch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", args[0])
			return nil
		},
	}
	wf.register(cmd)
	f := cmd.Flags()
	f.StringVar(&date, "date", "", "New date (YYYY-MM-DD)")
	f.StringVar(&start, "start", "", "New start time (HH:MM)")
	f.StringVar(&end, "end", "", "New end time (HH:MM)")
	f.StringVar(&desc, "desc", "", "New description")
	return cmd
}

func taskMoveCmd(e *env) *cobra.Command {
	var wf weekFlags
	var date, start string
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a task to another day and start, keeping its duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, week, err := wf.resolve()
			if err != nil {
				return err
			}
			p, err := e.app.Tasks.MoveTask(year, week, args[0], date, start)
			if err != nil {
				return err
			}
			if e.flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s %s-%s\n", args[0], p.Date, p.StartTime, p.EndTime)
			return nil
		},
	}
	wf.register(cmd)
	cmd.Flags().StringVar(&date, "date", "", "Target date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&start, "start", "", "Target start time (HH:MM)")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func taskDeleteCmd(e *env) *cobra.Command {
	var wf weekFlags
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task; ical- ids hide an imported task until the next sync",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, week, err := wf.resolve()
			if err != nil {
				return err
			}
			if err := e.app.Tasks.DeleteTask(year, week, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
	wf.register(cmd)
	return cmd
}
