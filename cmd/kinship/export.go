package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/domain/entities"
)

type exportFlags struct {
	format string
	output string
	scope  string
	root   string
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export people to file",
		Long:  "Exports the tree, or one person's personal view, to JSON, CSV, or markdown format.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "json", "Output format (json, csv, markdown)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&flags.scope, "scope", "s", "full", "View scope (full, personal)")
	cmd.Flags().StringVarP(&flags.root, "root", "r", "", "Person the personal view is centred on")

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	if !slices.Contains(validFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validFormats)
	}

	return withDeps(cmd.Context(), func(d *Deps) error {
		res, err := d.People.HandleList(cmd.Context(), flags.scope, flags.root)
		if err != nil {
			return fmt.Errorf("listing people: %w", err)
		}
		if len(res.People) == 0 {
			return fmt.Errorf("no people found to export")
		}
		return exportPeople(cmd.OutOrStdout(), flags.format, flags.output, res.People)
	})
}

func exportPeople(stdout io.Writer, format, output string, people []entities.Person) (err error) {
	w := stdout
	if output != "" {
		f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("creating file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing file: %w", cerr)
			}
		}()
		w = f
	}

	if err := formatPeople(w, format, people); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if output != "" {
		fmt.Fprintf(stdout, "Exported %d people to %s\n", len(people), output)
	}
	return nil
}

func formatPeople(w io.Writer, format string, people []entities.Person) error {
	switch format {
	case "json":
		return writeJSON(w, people)
	case "csv":
		return formatCSV(w, people)
	case "markdown":
		return formatMarkdown(w, people)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func formatCSV(w io.Writer, people []entities.Person) error {
	writer := csv.NewWriter(w)

	header := []string{"id", "name", "gender", "birth_year", "death_year", "father_id", "mother_id", "spouse_ids", "contact"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, p := range people {
		row := []string{
			p.ID,
			p.Name,
			string(p.Gender),
			yearString(p.BirthYear),
			yearString(p.DeathYear),
			p.FatherID,
			p.MotherID,
			strings.Join(p.SpouseIDs, ";"),
			p.Contact,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatMarkdown(w io.Writer, people []entities.Person) error {
	if _, err := fmt.Fprintf(w, "# Family Tree\n\nTotal: %d people\n\n", len(people)); err != nil {
		return err
	}

	if _, err := fmt.Fprint(w, "| Name | Born | Died | Father | Mother | Spouses |\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "|------|------|------|--------|--------|---------|\n"); err != nil {
		return err
	}

	names := make(map[string]string, len(people))
	for _, p := range people {
		names[p.ID] = p.Name
	}
	nameOf := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	}

	for _, p := range people {
		spouses := make([]string, 0, len(p.SpouseIDs))
		for _, id := range p.SpouseIDs {
			spouses = append(spouses, escapeMarkdown(nameOf(id)))
		}
		if _, err := fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s |\n",
			escapeMarkdown(p.Name),
			yearString(p.BirthYear),
			yearString(p.DeathYear),
			escapeMarkdown(nameOf(p.FatherID)),
			escapeMarkdown(nameOf(p.MotherID)),
			strings.Join(spouses, ", "),
		); err != nil {
			return err
		}
	}

	return nil
}

func yearString(y *int) string {
	if y == nil {
		return ""
	}
	return strconv.Itoa(*y)
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
