package arbor_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot_RenderReturnsElement(t *testing.T) {
	host := memory.NewHost()
	root := arbor.CreateRoot(host, host.NewContainer())

	el := element.H("div", map[string]any{"id": "x"})
	got, err := root.Render(context.Background(), el)

	require.NoError(t, err)
	assert.Equal(t, el, got)
	assert.Equal(t, uint64(1), root.Revision())
}

func TestRoot_NameIsCarriedByEvents(t *testing.T) {
	var roots []string
	host := memory.NewHost()
	root := arbor.CreateRoot(host, host.NewContainer(),
		arbor.WithName("sidebar"),
		arbor.WithLifecycleHooks(domain.LifecycleHooks{
			OnPassStart: func(_ context.Context, e *domain.PassEvent) { roots = append(roots, e.Root) },
			OnCommit:    func(_ context.Context, e *domain.CommitEvent) { roots = append(roots, e.Root) },
		}),
	)

	_, err := root.Render(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []string{"sidebar", "sidebar"}, roots)
	assert.Equal(t, "sidebar", root.Name)
}

func TestRoot_Unmount(t *testing.T) {
	host := memory.NewHost()
	container := host.NewContainer()
	root := arbor.CreateRoot(host, container)
	ctx := context.Background()

	_, err := root.Render(ctx, []any{element.H("a", nil), "b"})
	require.NoError(t, err)
	assert.Equal(t, "<a></a>b", host.HTML(container))
	assert.Len(t, root.Inspect(), 3)

	require.NoError(t, root.Unmount(ctx))
	assert.Equal(t, "", host.HTML(container))
	assert.Len(t, root.Inspect(), 1, "only the root node remains")
}

func TestRoot_UpdateFunc(t *testing.T) {
	host := memory.NewHost()
	container := host.NewContainer()
	root := arbor.CreateRoot(host, container)
	ctx := context.Background()

	_, err := root.Render(ctx, 1)
	require.NoError(t, err)
	_, err = root.Render(ctx, arbor.UpdateFunc(func(prev any) any {
		return prev.(int) + 1
	}))
	require.NoError(t, err)
	assert.Equal(t, "2", host.HTML(container))
}
