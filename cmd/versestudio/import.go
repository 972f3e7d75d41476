package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/csheth/versestudio/internal/config"
	"github.com/csheth/versestudio/internal/notes"
)

var importTitle string

var importCmd = &cobra.Command{
	Use:   "import <file.pdf>",
	Short: "Add a lyric version to the library from a PDF",
	Long: `Extract the text of a PDF and append it to the library as a lyric note.

Without --title the first lyric line becomes the title.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		note, err := notes.ImportPDF(args[0], importTitle, time.Now())
		if err != nil {
			return err
		}
		if err := notes.Save(cfg.LibraryPath, []notes.Note{note}); err != nil {
			return fmt.Errorf("save %s: %w", cfg.LibraryPath, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %q (%s) into %s\n", note.Title, note.ID, cfg.LibraryPath)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importTitle, "title", "t", "", "title for the imported version")
	rootCmd.AddCommand(importCmd)
}
