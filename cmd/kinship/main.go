// Package main provides the entry point for the kinship CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0-dev"
	globalDir  string
	globalTree string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kinship",
		Short:         "A family tree that keeps its relationships consistent and runs graph algorithms over them",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&globalDir, "dir", "", "Project directory containing .kinship (default: current directory)")
	rootCmd.PersistentFlags().StringVarP(&globalTree, "tree", "t", "", "Family tree to operate on (default: \"default\")")

	rootCmd.AddCommand(
		newInitCmd(),
		newServeCmd(),
		newPeopleCmd(),
		newPathCmd(),
		newSpanCmd(),
		newExportCmd(),
		newImportCmd(),
		newTreesCmd(),
	)

	return rootCmd
}
