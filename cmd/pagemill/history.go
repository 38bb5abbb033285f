// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pdiddy/pagemill/internal/journal"
	"github.com/pdiddy/pagemill/internal/project"
	"github.com/pdiddy/pagemill/internal/staging"
)

var historyCmd = &cobra.Command{
	Use:   "history <project.yaml>",
	Short: "List recent builds and the pages each one wrote",
	Long: `History reads the render journal kept in the project's staging
directory and prints the most recent runs, newest first, with the
staged pages each run wrote.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", journal.DefaultLimit, "maximum number of runs to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	proj, err := project.Load(args[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if !staging.Exists(filepath.Join(proj.Settings.Staging, journal.DBFile)) {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}

	j, err := journal.Open(proj.Settings.Staging)
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}
	for _, r := range runs {
		printRun(w, r)
	}
	return nil
}

func printRun(w io.Writer, r journal.Run) {
	status := "aborted"
	switch {
	case r.FinishedAt.IsZero():
	case r.Assembled:
		status = "assembled"
	default:
		status = "no update"
	}
	var flags string
	if r.Force {
		flags += " --force"
	}
	if r.PDFOnly {
		flags += " --pdf-only"
	}
	fmt.Fprintf(w, "%s  %s  %d rendered, %s%s\n",
		r.ID[:8], humanize.Time(r.StartedAt), r.Rendered, status, flags)
	for _, p := range r.Pages {
		source := p.Source
		if source == "" {
			source = "-"
		}
		fmt.Fprintf(w, "    %s  %-11s  %s  %s\n", p.Staged, p.Kind, shortDigest(p.Digest), source)
	}
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
