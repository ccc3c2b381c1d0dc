package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"weekplan/internal/prefs"
	"weekplan/internal/render"
	"weekplan/internal/share"
)

func exportCmd(e *env) *cobra.Command {
	var wf weekFlags
	var format, out string
	var scale, quality int
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a week as a PNG or JPEG image",
		Long: `Render a week with the saved export settings. --format, --scale and
--quality override the saved values for this run only. --out - writes the
image to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, week, err := wf.resolve()
			if err != nil {
				return err
			}
			st := e.app.Prefs.Load()
			f := cmd.Flags()
			if f.Changed("format") {
				st.Format = format
			}
			if f.Changed("scale") {
				st.Scale = scale
			}
			if f.Changed("quality") {
				st.Quality = quality
			}

			art, err := e.app.ExportWeek(cmd.Context(), year, week, &st)
			if err != nil {
				return err
			}
			if out == "-" {
				_, err := cmd.OutOrStdout().Write(art.Data)
				return err
			}
			if out == "" {
				out = filepath.Join(e.cfg.Export.OutputDir, art.Filename)
			}
			if err := os.WriteFile(out, art.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%dx%d, %d bytes)\n", out, art.Width, art.Height, len(art.Data))
			return nil
		},
	}
	wf.register(cmd)
	f := cmd.Flags()
	f.StringVar(&format, "format", "", "png or jpeg")
	f.IntVar(&scale, "scale", 0, "Pixel ratio 1..3")
	f.IntVar(&quality, "quality", 0, "JPEG quality 1..100")
	f.StringVarP(&out, "out", "o", "", "Output file (default: <output_dir>/<generated name>)")
	return cmd
}

func shareCmd(e *env) *cobra.Command {
	var wf weekFlags
	var target, pageURL string
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Export a week and hand it to a share target",
		Long: `Export a week and share it. download and file save the image into the
output directory; whatsapp and telegram print a share link carrying the
title, without the image.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, week, err := wf.resolve()
			if err != nil {
				return err
			}
			t, err := share.ParseTarget(target)
			if err != nil {
				return err
			}
			var sharer share.Sharer
			var dl *share.Downloader
			switch t {
			case share.TargetDownload, share.TargetFile:
				dl = share.NewDownloader(e.cfg.Export.OutputDir)
				dl.ShareNames = t == share.TargetFile
				sharer = dl
			default:
				sharer = &share.LinkSharer{Target: t, PageURL: pageURL, Out: cmd.OutOrStdout()}
			}
			p, err := e.app.ShareWeek(cmd.Context(), year, week, sharer)
			if err != nil {
				return err
			}
			if dl != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", p.Title(), dl.Saved)
			}
			return nil
		},
	}
	wf.register(cmd)
	cmd.Flags().StringVar(&target, "target", "download", "download, file, whatsapp or telegram")
	cmd.Flags().StringVar(&pageURL, "page-url", "", "Page link for telegram shares")
	return cmd
}

func settingsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change export settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the export settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := e.app.Prefs.Load()
			if st.CustomBackground != "" {
				st.CustomBackground = fmt.Sprintf("<%d bytes>", len(st.CustomBackground))
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}

	var in prefs.Settings
	set := &cobra.Command{
		Use:   "set",
		Short: "Change export settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := e.app.Prefs.Load()
			f := cmd.Flags()
			if f.Changed("format") {
				st.Format = in.Format
			}
			if f.Changed("quality") {
				st.Quality = in.Quality
			}
			if f.Changed("scale") {
				st.Scale = in.Scale
			}
			if f.Changed("background") {
				st.BackgroundType = in.BackgroundType
			}
			if f.Changed("preset") {
				st.SelectedBackground = in.SelectedBackground
			}
			if f.Changed("color") {
				st.BackgroundColor = in.BackgroundColor
			}
			if err := e.app.Prefs.Save(st); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Settings saved")
			return nil
		},
	}
	sf := set.Flags()
	sf.StringVar(&in.Format, "format", "", "png or jpeg")
	sf.IntVar(&in.Quality, "quality", 0, "JPEG quality 1..100")
	sf.IntVar(&in.Scale, "scale", 0, "Pixel ratio 1..3")
	sf.StringVar(&in.BackgroundType, "background", "", "none, color or image")
	sf.StringVar(&in.SelectedBackground, "preset", "", "Preset id for image backgrounds (see settings presets)")
	sf.StringVar(&in.BackgroundColor, "color", "", "Hex color for color backgrounds")

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default export settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e.app.Prefs.Reset()
			fmt.Fprintln(cmd.OutOrStdout(), "Settings reset")
			return nil
		},
	}

	background := &cobra.Command{
		Use:   "background <image>",
		Short: "Use a JPEG, PNG or WebP file as the background",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			dataURL, err := prefs.EncodeUpload(data)
			if err != nil {
				return err
			}
			st := e.app.Prefs.Load()
			st.BackgroundType = prefs.BackgroundImage
			st.SelectedBackground = prefs.CustomBackground
			st.CustomBackground = dataURL
			if err := e.app.Prefs.Save(st); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Background set from %s\n", filepath.Base(args[0]))
			return nil
		},
	}

	presets := &cobra.Command{
		Use:   "presets",
		Short: "List predefined backgrounds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, p := range render.Presets {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", p.ID, p.Name)
			}
			return nil
		},
	}

	cmd.AddCommand(show, set, reset, background, presets)
	return cmd
}
