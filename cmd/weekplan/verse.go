package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weekplan/internal/verse"
)

func verseCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verse",
		Short: "Show or control the verse printed under exports",
	}

	printVerse := func(cmd *cobra.Command, v verse.Verse) error {
		if e.flags.jsonOut {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"enabled": e.app.Verse.Enabled(),
				"verse":   v,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%q\n  %s\n", v.Text, v.Reference)
		if !e.app.Verse.Enabled() {
			fmt.Fprintln(cmd.OutOrStdout(), "(disabled for exports)")
		}
		return nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current verse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVerse(cmd, e.app.Verse.Current())
		},
	}, &cobra.Command{
		Use:   "on",
		Short: "Print the verse under exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e.app.Verse.SetEnabled(true)
			return printVerse(cmd, e.app.Verse.Current())
		},
	}, &cobra.Command{
		Use:   "off",
		Short: "Stop printing the verse under exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e.app.Verse.SetEnabled(false)
			fmt.Fprintln(cmd.OutOrStdout(), "Verse disabled")
			return nil
		},
	}, &cobra.Command{
		Use:   "find <reference>",
		Short: "Look up a verse by part of its reference, e.g. \"psalm 23\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, ok := verse.ByReference(args[0])
			if !ok {
				return fmt.Errorf("no verse matches %q", args[0])
			}
			if e.flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%q\n  %s\n", v.Text, v.Reference)
			return nil
		},
	}, &cobra.Command{
		Use:   "refresh",
		Short: "Pick a different verse now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVerse(cmd, e.app.Verse.Refresh())
		},
	})
	return cmd
}
