package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/infrastructure/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new kinship project",
		Long:  "Creates a .kinship directory with default configuration and an empty default family tree.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	base, err := basePath()
	if err != nil {
		return err
	}

	if config.Exists(base) {
		return fmt.Errorf("kinship already initialized in %s", base)
	}

	if err := config.WriteDefault(base); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", config.ConfigFilePath(base))

	trees, err := config.LoadTrees(base)
	if err != nil {
		return fmt.Errorf("loading trees: %w", err)
	}
	trees.Add(config.DefaultTree, config.TreeEntry{Description: "Default family tree"})
	if err := trees.Save(base); err != nil {
		return fmt.Errorf("saving trees: %w", err)
	}

	// Opening the store creates the tree's database and schema.
	globalTree = config.DefaultTree
	if err := withDeps(cmd.Context(), func(*Deps) error { return nil }); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Kinship initialized successfully!")
	return nil
}
