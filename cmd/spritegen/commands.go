package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spritegen/internal/generator"
	"github.com/cory-johannsen/spritegen/internal/server"
	"github.com/cory-johannsen/spritegen/internal/watch"
)

func listCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print every creature with its identifier and sprite folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, v, nil)
			if err != nil {
				return err
			}
			defer e.close()
			noColour, _ := cmd.Flags().GetBool("no-color")
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Creatures:")
			return e.gen.List(out, !noColour && color.IsSupportColor())
		},
	}
	cmd.Flags().Bool("no-color", false, "disable coloured output")
	return cmd
}

func generateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [folders...]",
		Short: "Write a SpriteFrames resource for each creature with complete frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			mustBind(v, cmd.Flags(), map[string]string{
				"dry-run": "generate.dry_run",
				"enums":   "paths.enums_file",
				"workers": "generate.workers",
			})
			e, err := setup(cmd, v, args)
			if err != nil {
				return err
			}
			defer e.close()

			noProgress, _ := cmd.Flags().GetBool("no-progress")
			var progress io.Writer = cmd.ErrOrStderr()
			if noProgress {
				progress = nil
			}
			report, err := e.gen.Run(cmd.Context(), progress)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report, e.cfg.Generate.DryRun)
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "render and validate without writing files")
	cmd.Flags().String("enums", "", "also write the GDScript enum file to this path")
	cmd.Flags().Int("workers", 0, "number of creatures generated in parallel")
	cmd.Flags().Bool("no-progress", false, "hide the progress bar")
	return cmd
}

func printReport(w io.Writer, r *generator.Report, dryRun bool) {
	verb := "wrote"
	if dryRun {
		verb = "checked"
	}
	for _, o := range r.Written {
		note := ""
		if o.UsedFallback {
			note = ", fallback move frames"
		}
		fmt.Fprintf(w, "%-8s %s  (idle %d, walk %d%s)\n", verb, o.Path, o.IdleFrames, o.MoveFrames, note)
	}
	for _, s := range r.Skipped {
		fmt.Fprintf(w, "skipped  %s: %s\n", s.Folder, s.Reason)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "warning  %s\n", warning)
	}
	if r.EnumsFile != "" {
		fmt.Fprintf(w, "wrote    %s\n", r.EnumsFile)
	}
	fmt.Fprintf(w, "total    %d written, %d skipped in %s\n",
		len(r.Written), len(r.Skipped), r.Elapsed.Round(time.Millisecond))
}

func enumsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enums",
		Short: "Write the GDScript enum file for the roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mustBind(v, cmd.Flags(), map[string]string{"out": "paths.enums_file"})
			e, err := setup(cmd, v, nil)
			if err != nil {
				return err
			}
			defer e.close()
			if e.cfg.Paths.EnumsFile == "" {
				return fmt.Errorf("no enum file path: set --out or paths.enums_file")
			}
			if err := e.gen.WriteEnums(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote    %s\n", e.cfg.Paths.EnumsFile)
			return nil
		},
	}
	cmd.Flags().String("out", "", "path of the GDScript enum file")
	return cmd
}

func previewCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview [folders...]",
		Short: "Write a PNG contact sheet of each creature's frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			mustBind(v, cmd.Flags(), map[string]string{
				"out":         "paths.preview_dir",
				"cell-height": "preview.cell_height",
			})
			e, err := setup(cmd, v, args)
			if err != nil {
				return err
			}
			defer e.close()
			paths, err := e.gen.Previews(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote    %s\n", p)
			}
			return nil
		},
	}
	cmd.Flags().String("out", "", "directory for contact sheets")
	cmd.Flags().Int("cell-height", 0, "height in pixels of each frame cell")
	return cmd
}

func watchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate resources whenever sprite frames change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mustBind(v, cmd.Flags(), map[string]string{
				"debounce": "watch.debounce",
				"enums":    "paths.enums_file",
			})
			e, err := setup(cmd, v, nil)
			if err != nil {
				return err
			}
			defer e.close()

			gen := e.gen
			regenerate := func(ctx context.Context) error {
				_, err := gen.Run(ctx, nil)
				return err
			}
			if err := regenerate(cmd.Context()); err != nil {
				return err
			}

			folders := make([]string, len(e.roster.Creatures))
			for i, c := range e.roster.Creatures {
				folders[i] = c.Folder
			}
			w := watch.New(e.cfg.Paths.BaseDir, folders, e.cfg.Watch.Debounce, regenerate, e.logger)

			lc := server.NewLifecycle(e.logger)
			lc.Add("watcher", server.ContextService(cmd.Context(), w.Run))
			e.logger.Info("watching for sprite changes", zap.String("base_dir", e.cfg.Paths.BaseDir))
			return lc.Run(cmd.Context())
		},
	}
	cmd.Flags().Duration("debounce", 0, "quiet period before regenerating")
	cmd.Flags().String("enums", "", "also rewrite the GDScript enum file to this path")
	return cmd
}
