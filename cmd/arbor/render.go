package main

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/session"
)

var renderCmd = &cobra.Command{
	Use:   "render <document>...",
	Short: "Render documents in sequence and report each commit",
	Long: `Renders each document into the same session, in order, so every document
after the first is reconciled against the previous one. Prints a commit report
per document and the final HTML.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		showTree, _ := cmd.Flags().GetBool("tree")
		quiet, _ := cmd.Flags().GetBool("quiet")

		b, err := openBackend(cfg.Store)
		if err != nil {
			return err
		}
		defer b.close()

		mgr := session.NewManager(b.store, session.WithLocker(b.locker), session.WithLogger(logger))
		results, err := renderFiles(cmd, mgr, sessionID, args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		tty := isTerminal(out)
		if !quiet {
			markdown, err := tui.NewRenderer(tty)
			if err != nil {
				return err
			}
			for _, res := range results {
				if res.Commit == nil {
					continue
				}
				report, err := markdown(tui.CommitReport(res.Commit, res.Mutations))
				if err != nil {
					return err
				}
				fmt.Fprint(out, report)
			}
		}

		if showTree {
			nodes, err := mgr.Inspect(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			profile := termenv.Ascii
			if tty {
				profile = termenv.EnvColorProfile()
			}
			tui.PrintTree(out, nodes, profile)
		}

		fmt.Fprintln(out, results[len(results)-1].Snapshot.HTML)
		return nil
	},
}

// renderFiles renders every file into sessionID and returns one result per file.
func renderFiles(cmd *cobra.Command, mgr *session.Manager, sessionID string, files []string) ([]*session.Result, error) {
	results := make([]*session.Result, 0, len(files))
	for _, name := range files {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		res, err := mgr.Render(cmd.Context(), sessionID, data, dsl.FormatFor(name))
		if err != nil {
			if res == nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			logger.Warn("render incomplete", "file", name, "err", err)
		}
		results = append(results, res)
	}
	return results, nil
}

// mutated lists the nodes a result touched.
func mutated(res *session.Result) []uint32 {
	ids := make([]uint32, 0, len(res.Mutations))
	for _, m := range res.Mutations {
		if m.Op != domain.OpRemove {
			ids = append(ids, m.NodeID)
		}
	}
	return ids
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringP("session", "s", "cli", "Session to render into")
	renderCmd.Flags().Bool("tree", false, "Print the committed work tree")
	renderCmd.Flags().BoolP("quiet", "q", false, "Only print the final HTML")
}
