package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/infrastructure/config"
)

func newTreesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trees",
		Short: "Manage family trees",
		Long:  "Each family tree keeps its people in its own store under .kinship/trees.",
		RunE:  runTreesList,
	}

	cmd.AddCommand(
		newTreesListCmd(),
		newTreesCreateCmd(),
		newTreesDeleteCmd(),
	)

	return cmd
}

func newTreesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all family trees",
		RunE:  runTreesList,
	}
}

func runTreesList(cmd *cobra.Command, args []string) error {
	base, err := basePath()
	if err != nil {
		return err
	}

	trees, err := config.LoadTrees(base)
	if err != nil {
		return fmt.Errorf("loading trees: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(trees.Trees) == 0 {
		fmt.Fprintln(out, "No trees configured.")
		fmt.Fprintln(out, "Use 'kinship trees create NAME' to create a tree.")
		return nil
	}

	fmt.Fprintf(out, "%-20s %s\n", "NAME", "DESCRIPTION")
	fmt.Fprintf(out, "%-20s %s\n", "----", "-----------")
	for _, name := range trees.Names() {
		fmt.Fprintf(out, "%-20s %s\n", name, trees.Trees[name].Description)
	}

	return nil
}

func newTreesCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new family tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTreesCreate(cmd, args[0], description)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Tree description")

	return cmd
}

func runTreesCreate(cmd *cobra.Command, name string, description string) error {
	base, err := basePath()
	if err != nil {
		return err
	}

	// Check if config exists, if not initialize
	if !config.Exists(base) {
		if err := config.WriteDefault(base); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized kinship in %s\n", config.ConfigDir(base))
	}

	if err := registerTree(base, name, description); err != nil {
		return err
	}

	// Opening the store creates the tree's database and schema.
	globalTree = name
	if err := withDeps(cmd.Context(), func(*Deps) error { return nil }); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created tree %q in %s\n", name, config.TreeDir(base, name))
	return nil
}

func registerTree(base, name, description string) error {
	if config.SanitizeTreeName(name) != name {
		return fmt.Errorf("invalid tree name %q (try %q)", name, config.SanitizeTreeName(name))
	}

	trees, err := config.LoadTrees(base)
	if err != nil {
		return fmt.Errorf("loading trees: %w", err)
	}
	if trees.Exists(name) {
		return fmt.Errorf("tree %q already exists", name)
	}

	trees.Add(name, config.TreeEntry{Description: description})
	if err := trees.Save(base); err != nil {
		return fmt.Errorf("saving trees: %w", err)
	}
	return nil
}

func newTreesDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a family tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTreesDelete(cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete even if the tree has people")

	return cmd
}

func runTreesDelete(cmd *cobra.Command, name string, force bool) error {
	if name == config.DefaultTree {
		return fmt.Errorf("tree %q cannot be deleted", name)
	}

	base, err := basePath()
	if err != nil {
		return err
	}

	trees, err := config.LoadTrees(base)
	if err != nil {
		return fmt.Errorf("loading trees: %w", err)
	}
	if !trees.Exists(name) {
		return fmt.Errorf("tree %q not found", name)
	}

	if !force {
		globalTree = name
		var count int
		err := withDeps(cmd.Context(), func(d *Deps) error {
			res, err := d.People.HandleList(cmd.Context(), "full", "")
			if err != nil {
				return err
			}
			count = len(res.People)
			return nil
		})
		if err != nil {
			return fmt.Errorf("checking tree %q before delete (use --force to delete anyway): %w", name, err)
		}
		if count > 0 {
			return fmt.Errorf("tree %q contains %d people, use --force to delete", name, count)
		}
	}

	for _, path := range treeDataPaths(base, name) {
		if err := os.RemoveAll(path); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Warning: could not remove data for %q: %v\n", name, err)
		}
	}

	trees.Remove(name)
	if err := trees.Save(base); err != nil {
		return fmt.Errorf("saving trees: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted tree %q\n", name)
	return nil
}

// treeDataPaths lists what deleting a tree removes: its directory, plus the
// store files when the config points the store outside that directory.
func treeDataPaths(base, name string) []string {
	dir := config.TreeDir(base, name)
	paths := []string{dir}

	cfg, err := config.Load(base)
	if err != nil {
		return paths
	}
	store := cfg.StorePathForTree(base, name)
	if store == ":memory:" || strings.HasPrefix(store, dir+string(filepath.Separator)) {
		return paths
	}
	paths = append(paths, store)
	if cfg.Store.Backend != config.BackendBadger {
		paths = append(paths, store+"-wal", store+"-shm")
	}
	return paths
}
