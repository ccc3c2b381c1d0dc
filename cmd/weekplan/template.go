package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"weekplan/internal/model"
	"weekplan/internal/tasks"
	"weekplan/internal/weekdate"
)

func templateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"tpl"},
		Short:   "Manage reusable task templates",
	}
	cmd.AddCommand(templateListCmd(e), templateAddCmd(e), templateUpdateCmd(e), templateDeleteCmd(e), templateUseCmd(e))
	return cmd
}

func templateListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := e.app.Tasks.Templates()
			if e.flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), list)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tMIN\tCATEGORY\tUSED")
			for _, t := range list {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\n", t.ID, t.Name, t.DefaultDuration, t.Category, t.UsageCount)
			}
			return tw.Flush()
		},
	}
}

func templateAddCmd(e *env) *cobra.Command {
	var t model.TaskTemplate
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			added, err := e.app.Tasks.AddTemplate(t)
			if err != nil {
				return err
			}
			if e.flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), added)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added template %s (%s)\n", added.ID, added.Name)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&t.Name, "name", "", "Template name")
	f.StringVar(&t.Description, "desc", "", "Description copied into new tasks")
	f.IntVar(&t.DefaultDuration, "duration", 60, "Default duration in minutes")
	f.StringVar(&t.Category, "category", "", "Category")
	f.StringVar(&t.Color, "color", "", "Display color")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func templateUpdateCmd(e *env) *cobra.Command {
	var name, desc, category, color string
	var duration int
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch tasks.TemplatePatch
			f := cmd.Flags()
			if f.Changed("name") {
				patch.Name = &name
			}
			if f.Changed("desc") {
				patch.Description = &desc
			}
			if f.Changed("duration") {
				patch.DefaultDuration = &duration
			}
			if f.Changed("category") {
				patch.Category = &category
			}
			if f.Changed("color") {
				patch.Color = &color
			}
			if err := e.app.Tasks.UpdateTemplate(args[0], patch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated template %s\n", args[0])
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "New name")
	f.StringVar(&desc, "desc", "", "New description")
	f.IntVar(&duration, "duration", 0, "New default duration in minutes")
	f.StringVar(&category, "category", "", "New category")
	f.StringVar(&color, "color", "", "New color")
	return cmd
}

func templateDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a template; tasks made from it are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e.app.Tasks.DeleteTemplate(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted template %s\n", args[0])
			return nil
		},
	}
}

func templateUseCmd(e *env) *cobra.Command {
	var date, start string
	cmd := &cobra.Command{
		Use:   "use <id>",
		Short: "Create a task from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, ok := e.app.Tasks.Template(args[0])
			if !ok {
				return fmt.Errorf("%w: template %s", tasks.ErrInvalidTemplate, args[0])
			}
			year, week, err := weekdate.WeekOf(date)
			if err != nil {
				return fmt.Errorf("%w: date %q", tasks.ErrInvalidTask, date)
			}
			t, err := e.app.Tasks.InstantiateFromTemplate(tpl, year, week, date, start)
			if err != nil {
				return err
			}
			if e.flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), model.View(t))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s on %s %s-%s from %q\n", t.ID, t.Date, t.StartTime, t.EndTime, tpl.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&start, "start", "", "Start time (HH:MM)")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}
