// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pagemill/internal/journal"
	"github.com/pdiddy/pagemill/internal/pipeline"
	"github.com/pdiddy/pagemill/internal/project"
	"github.com/pdiddy/pagemill/internal/render"
	"github.com/pdiddy/pagemill/pkg/types"
)

var buildCmd = &cobra.Command{
	Use:   "build <project.yaml>",
	Short: "Render changed pages and assemble the PDF",
	Long: `Build renders every page whose source is newer than its staged file,
always refreshes blank and placeholder pages, and reassembles the PDF
when anything in the staging directory changed.

Use --force to re-render every page, or --pdf-only to reassemble from
the staged pages without rendering.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	addBuildFlags(buildCmd)
	rootCmd.AddCommand(buildCmd)
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("force", false, "re-render every page regardless of timestamps")
	cmd.Flags().Bool("pdf-only", false, "assemble the PDF from staged pages without rendering")
	cmd.Flags().Bool("suppress-annotations", false, "do not stamp filenames or memos onto pages")
}

func runBuild(cmd *cobra.Command, args []string) error {
	var opts types.RunOptions
	opts.Force, _ = cmd.Flags().GetBool("force")
	opts.PDFOnly, _ = cmd.Flags().GetBool("pdf-only")
	opts.SuppressAnnotations, _ = cmd.Flags().GetBool("suppress-annotations")

	proj, err := project.Load(args[0])
	if err != nil {
		return err
	}
	cfg, err := toolConfig()
	if err != nil {
		return err
	}

	face, err := render.LoadFace(cfg.Font, cfg.FontSize)
	if err != nil {
		return err
	}
	r, err := render.New(proj.Settings, render.WithFace(face), render.WithStampMargin(cfg.StampMargin))
	if err != nil {
		return err
	}

	pipeOpts := []pipeline.Option{pipeline.WithLogger(slog.Default())}
	if cfg.Journal {
		j, err := journal.Open(proj.Settings.Staging)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: journal disabled: %v\n", err)
		} else {
			defer j.Close()
			pipeOpts = append(pipeOpts, pipeline.WithRecorder(j))
		}
	}

	result, err := pipeline.New(proj, r, cmd.OutOrStdout(), pipeOpts...).Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if result.Assembled {
		fmt.Fprintf(cmd.OutOrStdout(), "Done: %s\n", result.Document)
	}
	return nil
}
