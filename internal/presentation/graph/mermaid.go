package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// maxTextLabel truncates text node labels.
const maxTextLabel = 24

// GraphOverlay marks nodes touched by the last commit.
type GraphOverlay struct {
	Mutated []uint32
	Focus   uint32
}

// GenerateMermaid produces a Mermaid flowchart of a work tree as returned
// by Inspect. It applies semantic styling:
// - Root: ((Circle))
// - Component: [[Subroutine]]
// - Text: [/Parallelogram/]
// - Element: [Rectangle]
// Keyed children hang off a labeled edge. Overlay styles are applied if provided.
func GenerateMermaid(nodes []domain.WorkNodeInfo, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	known := make(map[uint32]bool, len(nodes))
	for _, node := range nodes {
		known[node.ID] = true
		opener, closer := "[", "]"
		switch node.Kind {
		case domain.KindRoot:
			opener, closer = "((", "))"
		case domain.KindComputation:
			opener, closer = "[[", "]]"
		case domain.KindHostText:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", nodeID(node.ID), opener, label(node), closer)

		if node.Parent == 0 {
			continue
		}
		arrow := "-->"
		if node.Keyed {
			arrow = fmt.Sprintf("-- \"%s\" -->", escape(node.Key))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", nodeID(node.Parent), arrow, nodeID(node.ID))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef mutated fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef focus fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[uint32]bool)
		for _, id := range overlay.Mutated {
			// removed nodes are not part of the tree anymore
			if seen[id] || !known[id] {
				continue
			}
			seen[id] = true
			fmt.Fprintf(&sb, "    class %s mutated;\n", nodeID(id))
		}
		if overlay.Focus != 0 && known[overlay.Focus] {
			fmt.Fprintf(&sb, "    class %s focus;\n", nodeID(overlay.Focus))
		}
	}

	return sb.String()
}

func nodeID(id uint32) string {
	return fmt.Sprintf("n%d", id)
}

func label(node domain.WorkNodeInfo) string {
	switch node.Kind {
	case domain.KindRoot:
		return "root"
	case domain.KindHostText:
		text := node.Text
		if r := []rune(text); len(r) > maxTextLabel {
			text = string(r[:maxTextLabel-1]) + "…"
		}
		return escape(text)
	}
	return escape(node.Type)
}

// escape replaces characters Mermaid cannot carry inside a quoted label.
func escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}
