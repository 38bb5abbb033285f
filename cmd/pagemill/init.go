// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pagemill/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a starter project file",
	Long: `Init writes project.yaml into dir (default: the current directory) with
a title page, one image page, and a blank page, and creates the source
directory it refers to. An existing project.yaml is never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		title, _ := cmd.Flags().GetString("title")
		author, _ := cmd.Flags().GetString("author")

		path, err := project.Scaffold(dir, title, author)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote: %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().String("title", "Untitled", "book title for the front matter")
	initCmd.Flags().String("author", "Anonymous", "author name for the front matter")
	rootCmd.AddCommand(initCmd)
}
