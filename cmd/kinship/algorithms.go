package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/application/handlers"
	"github.com/ersonp/kinship/internal/domain/algorithms"
	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/graph"
	"github.com/ersonp/kinship/internal/domain/services"
)

// graphFlags are shared by path and span.
type graphFlags struct {
	algorithm string
	scope     string
	root      string
	weights   []string
	asJSON    bool
	quiet     bool
}

func (f *graphFlags) register(cmd *cobra.Command, valid []string) {
	cmd.Flags().StringVarP(&f.algorithm, "algorithm", "a", valid[0], "Algorithm to run ("+strings.Join(valid, ", ")+")")
	cmd.Flags().StringVarP(&f.scope, "scope", "s", "full", "Graph scope (full, personal)")
	cmd.Flags().StringVarP(&f.root, "root", "r", "", "Person the graph (or Prim's tree) is rooted at")
	cmd.Flags().StringArrayVarP(&f.weights, "weight", "w", nil, "Edge weight override as SOURCE:TARGET=WEIGHT (repeatable)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Omit the step-by-step trace")
}

// parseWeights reads SOURCE:TARGET=WEIGHT overrides.
func parseWeights(raw []string) ([]graph.WeightOverride, error) {
	out := make([]graph.WeightOverride, 0, len(raw))
	for _, r := range raw {
		pair, weight, ok := strings.Cut(r, "=")
		if !ok {
			return nil, fmt.Errorf("invalid weight %q (want SOURCE:TARGET=WEIGHT)", r)
		}
		source, target, ok := strings.Cut(pair, ":")
		if !ok || source == "" || target == "" {
			return nil, fmt.Errorf("invalid weight %q (want SOURCE:TARGET=WEIGHT)", r)
		}
		w, err := strconv.ParseFloat(weight, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", r, err)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("invalid weight %q: must be a finite number", r)
		}
		out = append(out, graph.WeightOverride{Source: source, Target: target, Weight: w})
	}
	return out, nil
}

func newPathCmd() *cobra.Command {
	var flags graphFlags

	cmd := &cobra.Command{
		Use:   "path <start> <end>",
		Short: "Find the shortest path between two people",
		Long: `Runs Dijkstra or Bellman-Ford over the family graph. Every parent/child
and spouse link is an edge of weight 1 unless overridden with --weight.

Examples:
  kinship path <kid> <grandmother>
  kinship path <a> <b> --algorithm bellman-ford --weight <a>:<c>=-2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			weights, err := parseWeights(flags.weights)
			if err != nil {
				return err
			}
			req := services.ShortestPathRequest{
				Algorithm: algorithms.Algorithm(flags.algorithm),
				Start:     args[0],
				End:       args[1],
				Scope:     entities.Scope(flags.scope),
				Root:      flags.root,
				Weights:   weights,
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				res, err := d.Algorithms.HandleShortestPath(cmd.Context(), req)
				if err != nil {
					return fmt.Errorf("finding path: %w", err)
				}
				if flags.asJSON {
					return writeJSON(cmd.OutOrStdout(), res)
				}
				displayPath(cmd.OutOrStdout(), res, flags.quiet)
				return nil
			})
		},
	}

	flags.register(cmd, handlers.ValidPathAlgorithms)
	return cmd
}

func newSpanCmd() *cobra.Command {
	var flags graphFlags

	cmd := &cobra.Command{
		Use:   "span",
		Short: "Compute a minimum spanning tree of the family graph",
		Long: `Runs Prim or Kruskal over the family graph. Kruskal returns a forest when the
graph is disconnected; Prim covers only the component of --root.

Examples:
  kinship span
  kinship span --algorithm prim --root <id> --scope personal`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			weights, err := parseWeights(flags.weights)
			if err != nil {
				return err
			}
			req := services.SpanningTreeRequest{
				Algorithm: algorithms.Algorithm(flags.algorithm),
				Root:      flags.root,
				Scope:     entities.Scope(flags.scope),
				Weights:   weights,
			}
			return withDeps(cmd.Context(), func(d *Deps) error {
				res, err := d.Algorithms.HandleSpanningTree(cmd.Context(), req)
				if err != nil {
					return fmt.Errorf("computing spanning tree: %w", err)
				}
				if flags.asJSON {
					return writeJSON(cmd.OutOrStdout(), res)
				}
				displayTree(cmd.OutOrStdout(), res, flags.quiet)
				return nil
			})
		},
	}

	flags.register(cmd, handlers.ValidTreeAlgorithms)
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func displayTrace(w io.Writer, trace []string) {
	for i, step := range trace {
		fmt.Fprintf(w, "%3d. %s\n", i+1, step)
	}
	fmt.Fprintln(w)
}

func displayPath(w io.Writer, res *algorithms.PathResult, quiet bool) {
	if !quiet {
		displayTrace(w, res.Trace)
	}
	if !res.Reachable {
		fmt.Fprintf(w, "No path from %s to %s\n", res.Start, res.End)
		return
	}
	fmt.Fprintf(w, "Path: %s\n", strings.Join(res.Nodes, " -> "))
	fmt.Fprintf(w, "Total distance: %s\n", strconv.FormatFloat(res.TotalDistance, 'f', -1, 64))
	if res.NegativeCycle {
		fmt.Fprintln(w, "Warning: negative-weight cycle detected; distances are not reliable")
	}
}

func displayTree(w io.Writer, res *algorithms.TreeResult, quiet bool) {
	if !quiet {
		displayTrace(w, res.Trace)
	}
	for _, e := range res.Edges {
		fmt.Fprintf(w, "  %s -- %s (%s, weight %s)\n",
			e.Source, e.Target, e.Kind, strconv.FormatFloat(e.Weight, 'f', -1, 64))
	}
	fmt.Fprintf(w, "Edges: %d  Total weight: %s  Components: %d\n",
		len(res.Edges), strconv.FormatFloat(res.TotalWeight, 'f', -1, 64), res.Components)
	if res.Disconnected {
		fmt.Fprintln(w, "Note: the graph is disconnected")
	}
}
