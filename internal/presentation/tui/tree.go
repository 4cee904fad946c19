package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/arbor/pkg/domain"
)

// PrintTree writes a work tree as returned by Inspect, one node per line,
// indented by depth.
func PrintTree(w io.Writer, nodes []domain.WorkNodeInfo, p termenv.Profile) {
	for _, n := range nodes {
		indent := strings.Repeat("  ", n.Depth)
		var label termenv.Style
		switch n.Kind {
		case domain.KindRoot:
			label = p.String("root").Faint()
		case domain.KindHostText:
			label = p.String(fmt.Sprintf("%q", n.Text)).Foreground(p.Color("#a3a3a3"))
		case domain.KindComputation:
			label = p.String(n.Type).Foreground(p.Color("#c084fc")).Bold()
		default:
			label = p.String(n.Type).Foreground(p.Color("#38bdf8"))
		}

		line := indent + label.String()
		if n.Keyed {
			line += " " + p.String("#"+n.Key).Foreground(p.Color("#fbbf24")).String()
		}
		if n.Flags != domain.NoFlags {
			line += " " + p.String("["+n.Flags.String()+"]").Italic().String()
		}
		fmt.Fprintln(w, line)
	}
}

// CommitReport summarizes one render as markdown, for NewRenderer.
func CommitReport(e *domain.CommitEvent, mutations []domain.MutationEvent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Commit %s r%d\n\n", e.Root, e.Revision)
	if e.Skipped {
		sb.WriteString("_Nothing changed._\n")
		return sb.String()
	}

	sb.WriteString("| placements | updates | deletions | failures |\n")
	sb.WriteString("|---|---|---|---|\n")
	fmt.Fprintf(&sb, "| %d | %d | %d | %d |\n", e.Placements, e.Updates, e.Deletions, e.Failures)

	if len(mutations) > 0 {
		sb.WriteString("\n")
		for _, m := range mutations {
			typ := m.Type
			if typ == "" {
				typ = m.Kind.String()
			}
			fmt.Fprintf(&sb, "- `%s` %s (node %d)\n", m.Op, typ, m.NodeID)
		}
	}
	return sb.String()
}
