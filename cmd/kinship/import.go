package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/application/handlers"
)

type importFlags struct {
	format     string
	dryRun     bool
	onConflict string
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import people from JSON or CSV",
		Long: "Imports people from a file in the format written by export. " +
			"The whole batch is checked against the relationship rules and saved in one transaction.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().StringVar(&flags.onConflict, "on-conflict", "skip", "Conflict handling (skip, overwrite)")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	if flags.onConflict != "skip" && flags.onConflict != "overwrite" {
		return fmt.Errorf("invalid --on-conflict value %q (valid: skip, overwrite)", flags.onConflict)
	}

	out := cmd.OutOrStdout()
	return withDeps(cmd.Context(), func(d *Deps) error {
		opts := handlers.ImportOptions{
			Format:     flags.format,
			DryRun:     flags.dryRun,
			OnConflict: flags.onConflict,
		}

		fmt.Fprintf(out, "Importing %s...\n", filePath)

		result, err := d.Import.Handle(cmd.Context(), filePath, opts)
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		if len(result.Errors) > 0 {
			fmt.Fprintf(out, "\nValidation errors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  %s\n", e.Error())
			}
		}

		fmt.Fprintln(out)
		if flags.dryRun {
			fmt.Fprintf(out, "Dry run: %d people would be imported", result.Imported)
		} else {
			fmt.Fprintf(out, "Imported: %d people", result.Imported)
		}
		if result.Skipped > 0 {
			fmt.Fprintf(out, ", %d skipped (already exist)", result.Skipped)
		}
		if len(result.Errors) > 0 {
			fmt.Fprintf(out, ", %d errors", len(result.Errors))
		}
		fmt.Fprintln(out)

		return nil
	})
}
