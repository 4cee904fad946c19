package memory_test

import (
	"errors"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryHost_Contract(t *testing.T) {
	host := memory.NewHost()
	ports.RunHostContract(t, host, host, func() ports.HostNode {
		return host.NewContainer()
	})
}

func TestMemoryHost_RecordsCalls(t *testing.T) {
	host := memory.NewHost()
	root := host.NewContainer()

	el, err := host.CreateElement("p", map[string]any{"class": "x"})
	require.NoError(t, err)
	txt, err := host.CreateText("hi")
	require.NoError(t, err)
	require.NoError(t, host.AppendChild(el, txt))
	require.NoError(t, host.AppendChild(root, el))

	assert.Equal(t, 1, host.Calls(memory.OpCreateElement))
	assert.Equal(t, 1, host.Calls(memory.OpCreateText))
	assert.Equal(t, 2, host.Calls(memory.OpAppendChild))
	assert.Equal(t, 4, host.TotalCalls())
	require.Len(t, host.Ops(), 4)
	assert.Equal(t, memory.OpAppendChild, host.Ops()[3].Name)

	host.Reset()
	assert.Zero(t, host.TotalCalls())
	assert.Empty(t, host.Ops())
}

func TestMemoryHost_UpdateAttributes(t *testing.T) {
	host := memory.NewHost()
	node, err := host.CreateElement("div", map[string]any{"id": "a", "title": "t"})
	require.NoError(t, err)

	err = host.UpdateAttributes(node, domain.AttrPatch{
		Set:     map[string]any{"id": "b"},
		Removed: []string{"title"},
	})
	require.NoError(t, err)

	n := node.(*memory.Node)
	assert.Equal(t, map[string]any{"id": "b"}, n.Attrs())
}

func TestMemoryHost_SetTextOnElementFails(t *testing.T) {
	host := memory.NewHost()
	node, _ := host.CreateElement("div", nil)
	assert.ErrorIs(t, host.SetTextContent(node, "x"), memory.ErrNotText)
}

func TestMemoryHost_ForeignNode(t *testing.T) {
	host := memory.NewHost()
	root := host.NewContainer()
	assert.ErrorIs(t, host.AppendChild(root, "not a node"), memory.ErrForeignNode)
}

func TestMemoryHost_FailOn(t *testing.T) {
	host := memory.NewHost()
	boom := errors.New("boom")
	host.FailOn(memory.OpCreateText, boom)

	_, err := host.CreateText("x")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, host.Calls(memory.OpCreateText), "failed calls are still counted")

	host.FailOn(memory.OpCreateText, nil)
	_, err = host.CreateText("x")
	assert.NoError(t, err)
}

func TestMemoryHost_HTML(t *testing.T) {
	host := memory.NewHost()
	root := host.NewContainer()

	div, _ := host.CreateElement("div", map[string]any{
		"class":    "box",
		"hidden":   false,
		"disabled": true,
		"onClick":  func() {},
	})
	txt, _ := host.CreateText("a < b")
	br, _ := host.CreateElement("br", nil)
	require.NoError(t, host.AppendChild(div, txt))
	require.NoError(t, host.AppendChild(div, br))
	require.NoError(t, host.AppendChild(root, div))

	assert.Equal(t, `<div class="box" disabled>a &lt; b<br></div>`, host.HTML(root))
	assert.Equal(t, "a < b", host.TextContent(root))
}
