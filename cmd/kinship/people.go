package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/domain/entities"
)

// personFlags are the editable person fields. Only flags that were set on
// the command line end up in the patch; an empty value clears the field.
type personFlags struct {
	name      string
	gender    string
	birthYear string
	deathYear string
	father    string
	mother    string
	spouses   []string
	contact   string
	image     string
}

func (f *personFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Full name")
	cmd.Flags().StringVarP(&f.gender, "gender", "g", "", "Gender (male, female, unknown)")
	cmd.Flags().StringVar(&f.birthYear, "birth-year", "", "Birth year (empty clears)")
	cmd.Flags().StringVar(&f.deathYear, "death-year", "", "Death year (empty clears)")
	cmd.Flags().StringVar(&f.father, "father", "", "Father's id (empty clears)")
	cmd.Flags().StringVar(&f.mother, "mother", "", "Mother's id (empty clears)")
	cmd.Flags().StringSliceVar(&f.spouses, "spouse", nil, "Spouse ids (repeatable; replaces the whole list)")
	cmd.Flags().StringVar(&f.contact, "contact", "", "Contact details")
	cmd.Flags().StringVar(&f.image, "image", "", "Image reference")
}

func (f *personFlags) patch(cmd *cobra.Command) (entities.PersonPatch, error) {
	var p entities.PersonPatch
	changed := cmd.Flags().Changed

	if changed("name") {
		p.Name = &f.name
	}
	if changed("gender") {
		g := entities.Gender(strings.ToLower(f.gender))
		p.Gender = &g
	}
	if changed("birth-year") {
		y, err := parseYear("birth-year", f.birthYear)
		if err != nil {
			return p, err
		}
		p.BirthYear = y
	}
	if changed("death-year") {
		y, err := parseYear("death-year", f.deathYear)
		if err != nil {
			return p, err
		}
		p.DeathYear = y
	}
	if changed("father") {
		p.FatherID = optionalID(f.father)
	}
	if changed("mother") {
		p.MotherID = optionalID(f.mother)
	}
	if changed("spouse") {
		spouses := f.spouses
		if spouses == nil {
			spouses = []string{}
		}
		p.SpouseIDs = &spouses
	}
	if changed("contact") {
		p.Contact = &f.contact
	}
	if changed("image") {
		p.Image = &f.image
	}
	return p, nil
}

func parseYear(flag, s string) (entities.Nullable[int], error) {
	if strings.TrimSpace(s) == "" {
		return entities.Null[int](), nil
	}
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return entities.Nullable[int]{}, fmt.Errorf("invalid --%s %q: must be a whole year", flag, s)
	}
	return entities.Some(y), nil
}

func optionalID(s string) entities.Nullable[string] {
	if strings.TrimSpace(s) == "" {
		return entities.Null[string]()
	}
	return entities.Some(strings.TrimSpace(s))
}

func newPeopleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "people",
		Aliases: []string{"person"},
		Short:   "Manage people in the family tree",
	}

	cmd.AddCommand(
		newPeopleListCmd(),
		newPeopleShowCmd(),
		newPeopleAddCmd(),
		newPeopleUpdateCmd(),
		newPeopleDeleteCmd(),
		newPeopleRelateCmd(),
		newPeopleHistoryCmd(),
	)

	return cmd
}

func newPeopleListCmd() *cobra.Command {
	var scope, root string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List people",
		Long:  "Lists everyone in the tree, or only a person's parents, spouses and children with --scope personal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				res, err := d.People.HandleList(cmd.Context(), scope, root)
				if err != nil {
					return fmt.Errorf("listing people: %w", err)
				}
				if len(res.People) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No people found.")
					return nil
				}
				displayPeople(cmd.OutOrStdout(), res.People)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&scope, "scope", "s", "full", "View scope (full, personal)")
	cmd.Flags().StringVarP(&root, "root", "r", "", "Person the personal view is centred on")

	return cmd
}

func newPeopleShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				p, err := d.People.HandleGet(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				displayPerson(cmd.OutOrStdout(), p)
				return nil
			})
		},
	}
}

func newPeopleAddCmd() *cobra.Command {
	var flags personFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a person",
		Long: `Adds a person. Spouses named with --spouse are linked back automatically.

Examples:
  kinship people add --name "Ada Lovelace" --gender female --birth-year 1815
  kinship people add --name "William King" --spouse <ada-id>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := flags.patch(cmd)
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				p, err := d.People.HandleCreate(cmd.Context(), patch)
				if err != nil {
					return fmt.Errorf("adding person: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added person: %s\n", p.ID)
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newPeopleUpdateCmd() *cobra.Command {
	var flags personFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a person",
		Long: `Changes only the fields given as flags. An empty value clears an optional field.

Examples:
  kinship people update <id> --death-year 1852
  kinship people update <id> --mother ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := flags.patch(cmd)
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				p, err := d.People.HandleUpdate(cmd.Context(), args[0], patch)
				if err != nil {
					return fmt.Errorf("updating person: %w", err)
				}
				displayPerson(cmd.OutOrStdout(), p)
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newPeopleDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a person",
		Long:  "Deletes a person and removes them as a parent or spouse from everyone else.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				if err := d.People.HandleDelete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("deleting person: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted person: %s\n", args[0])
				return nil
			})
		},
	}
}

func newPeopleRelateCmd() *cobra.Command {
	var flags personFlags

	cmd := &cobra.Command{
		Use:   "relate <id> <relation>",
		Short: "Add a new relative to a person",
		Long: `Creates a new person and links them to <id>.

Valid relations:
  - father, mother (the new person becomes <id>'s parent)
  - spouse
  - child (<id> becomes the new person's father or mother by gender)

Examples:
  kinship people relate <id> father --name "John Smith"
  kinship people relate <id> child --name "Jane Smith" --birth-year 1990`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := flags.patch(cmd)
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				p, err := d.People.HandleAddRelative(cmd.Context(), args[0], args[1], patch)
				if err != nil {
					return fmt.Errorf("adding relative: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s of %s: %s\n", strings.ToLower(args[1]), args[0], p.ID)
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newPeopleHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show the change history of a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				entries, err := d.People.HandleHistory(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No history found.")
					return nil
				}
				displayHistory(cmd.OutOrStdout(), entries)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultHistoryLimit, "Maximum number of entries to display")

	return cmd
}

func displayPeople(w io.Writer, people []entities.Person) {
	fmt.Fprintf(w, "Showing %d people:\n\n", len(people))
	for i := range people {
		displayPerson(w, &people[i])
	}
}

func displayPerson(w io.Writer, p *entities.Person) {
	fmt.Fprintf(w, "ID: %s\n", p.ID)
	fmt.Fprintf(w, "  %s (%s)%s\n", p.Name, p.Gender, lifespan(p))
	if p.FatherID != "" {
		fmt.Fprintf(w, "  Father: %s\n", p.FatherID)
	}
	if p.MotherID != "" {
		fmt.Fprintf(w, "  Mother: %s\n", p.MotherID)
	}
	if len(p.SpouseIDs) > 0 {
		fmt.Fprintf(w, "  Spouses: %s\n", strings.Join(p.SpouseIDs, ", "))
	}
	if p.Contact != "" {
		fmt.Fprintf(w, "  Contact: %s\n", p.Contact)
	}
	fmt.Fprintln(w)
}

func lifespan(p *entities.Person) string {
	switch {
	case p.BirthYear != nil && p.DeathYear != nil:
		return fmt.Sprintf(" %d-%d", *p.BirthYear, *p.DeathYear)
	case p.BirthYear != nil:
		return fmt.Sprintf(" b. %d", *p.BirthYear)
	case p.DeathYear != nil:
		return fmt.Sprintf(" d. %d", *p.DeathYear)
	default:
		return ""
	}
}

func displayHistory(w io.Writer, entries []entities.AuditEntry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-6s %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.PersonID)
		if name, ok := e.Details["name"]; ok {
			fmt.Fprintf(w, "  name: %v\n", name)
		}
	}
}
