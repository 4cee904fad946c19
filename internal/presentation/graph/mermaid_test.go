package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/domain"
)

var tree = []domain.WorkNodeInfo{
	{ID: 1, Kind: domain.KindRoot},
	{ID: 2, Parent: 1, Depth: 1, Kind: domain.KindComputation, Type: "List"},
	{ID: 3, Parent: 2, Depth: 2, Kind: domain.KindHostElement, Type: "ul"},
	{ID: 4, Parent: 3, Depth: 3, Kind: domain.KindHostElement, Type: "li", Key: "a", Keyed: true},
	{ID: 5, Parent: 4, Depth: 4, Kind: domain.KindHostText, Text: `say "hi"`},
	{ID: 6, Parent: 3, Depth: 3, Kind: domain.KindHostText, Text: strings.Repeat("x", 40)},
}

func TestGenerateMermaid(t *testing.T) {
	got := graph.GenerateMermaid(tree, nil)

	contains := []string{
		"graph TD\n",
		`n1(("root"))`,
		`n2[["List"]]`,
		`n3["ul"]`,
		`n1 --> n2`,
		`n3 -- "a" --> n4`,
		`n5[/"say 'hi'"/]`,
		`n6[/"` + strings.Repeat("x", 23) + `…"/]`,
	}
	for _, want := range contains {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q\n--- got ---\n%s", want, got)
		}
	}
	if strings.Contains(got, "Overlay") {
		t.Error("no overlay section expected without overlay")
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	got := graph.GenerateMermaid(tree, &graph.GraphOverlay{
		Mutated: []uint32{4, 4, 99},
		Focus:   3,
	})

	if n := strings.Count(got, "class n4 mutated;"); n != 1 {
		t.Errorf("expected n4 styled once, got %d", n)
	}
	if strings.Contains(got, "n99") {
		t.Error("nodes outside the tree must not be styled")
	}
	if !strings.Contains(got, "class n3 focus;") {
		t.Error("expected focus style")
	}
}
