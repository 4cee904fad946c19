package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/session"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <document>...",
	Short: "Export the work tree visualization",
	Long: `Renders the documents in sequence and outputs a Mermaid diagram (graph TD) of the
committed work tree, highlighting the nodes the last render touched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := session.NewManager(memory.NewStore(), session.WithLogger(logger))
		results, err := renderFiles(cmd, mgr, "graph", args)
		if err != nil {
			return err
		}

		nodes, err := mgr.Inspect(cmd.Context(), "graph")
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if noOverlay, _ := cmd.Flags().GetBool("plain"); !noOverlay {
			overlay = &graph.GraphOverlay{Mutated: mutated(results[len(results)-1])}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(nodes, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("plain", false, "Do not highlight mutated nodes")
}
