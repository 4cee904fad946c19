package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
)

func items(keys ...string) element.Element {
	children := make([]any, len(keys))
	for i, k := range keys {
		children[i] = element.H("li", map[string]any{"key": k}, k)
	}
	return element.H("ul", nil, children)
}

func TestMetrics_RecordsRenders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	host := memory.NewHost()
	root := arbor.CreateRoot(host, host.NewContainer(), arbor.WithLifecycleHooks(m.Hooks()))
	ctx := context.Background()

	_, err := root.Render(ctx, items("a", "b"))
	require.NoError(t, err)
	_, err = root.Render(ctx, items("a", "b"))
	require.NoError(t, err)
	_, err = root.Render(ctx, items("b"))
	require.NoError(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.passes))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.commits.WithLabelValues("applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commits.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("append")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("remove")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.unmounts), "li and its text")
	assert.Equal(t, 1, testutil.CollectAndCount(m.commitDuration))
}

func TestMetrics_AbortsAndFailures(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	host := memory.NewHost()
	root := arbor.CreateRoot(host, host.NewContainer(), arbor.WithLifecycleHooks(m.Hooks()))
	ctx := context.Background()

	boom := element.NewComponent("Boom", func(element.Props) any { panic("boom") })
	_, err := root.Render(ctx, element.C(boom, nil))
	require.ErrorIs(t, err, domain.ErrPassAborted)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aborts))

	host.FailOn(memory.OpAppendChild, errors.New("detached"))
	// a lone text node is attached by the commit, not while completing
	_, err = root.Render(ctx, "hello")
	require.ErrorIs(t, err, domain.ErrCommitIncomplete)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commits.WithLabelValues("incomplete")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.mutations.WithLabelValues("append")), "failed calls are not counted")
}

func TestMetrics_NilRegisterer(t *testing.T) {
	assert.NotPanics(t, func() { NewMetrics(nil) })
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelDebug)

	host := memory.NewHost()
	root := arbor.CreateRoot(host, host.NewContainer(), arbor.WithLifecycleHooks(LogHooks(logger)))
	_, err := root.Render(context.Background(), items("a"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=commit")
	assert.Contains(t, out, "placements=1")
	assert.Contains(t, out, "op=append")
}
