package arbor

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbor/internal/reconciler"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Root is the high-level entry point of the library: one host container
// driven by one double-buffered work tree.
// A Root is not safe for concurrent use; serialize calls per root.
type Root struct {
	container *reconciler.Container
	Name      string
}

// Option defines a functional option for configuring a Root.
type Option func(*rootConfig)

type rootConfig struct {
	name   string
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// WithLogger sets a custom structured logger for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *rootConfig) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *rootConfig) {
		c.hooks = hooks
	}
}

// WithName labels the root in logs and events (default "root").
func WithName(name string) Option {
	return func(c *rootConfig) {
		c.name = name
	}
}

// UpdateFunc computes the next root element from the previously rendered one.
type UpdateFunc = reconciler.UpdateFunc

// CreateRoot binds container, a node of host, to a new empty root.
func CreateRoot(host ports.Host, container ports.HostNode, opts ...Option) *Root {
	cfg := &rootConfig{name: "root"}
	for _, opt := range opts {
		opt(cfg)
	}

	containerOpts := []reconciler.Option{
		reconciler.WithName(cfg.name),
		reconciler.WithLifecycleHooks(cfg.hooks),
	}
	if cfg.logger != nil {
		containerOpts = append(containerOpts, reconciler.WithLogger(cfg.logger))
	}

	return &Root{
		container: reconciler.NewContainer(host, container, containerOpts...),
		Name:      cfg.name,
	}
}

// Render makes the host container reflect el and returns el unchanged.
//
// el is an element.Element, a string or number (rendered as text), a list
// of those, nil (renders nothing) or an UpdateFunc. Rendering is synchronous:
// when Render returns, the host has been mutated. A Render issued while
// another one is running (from a lifecycle hook or a host side effect)
// replaces any pending element and is rendered by the running call.
//
// The error wraps domain.ErrPassAborted when the pass failed before commit,
// in which case the host and the committed tree are unchanged, or
// domain.ErrCommitIncomplete when some host mutations failed.
func (r *Root) Render(ctx context.Context, el any) (any, error) {
	return el, r.container.Update(ctx, el)
}

// Unmount removes everything the root rendered from the container.
func (r *Root) Unmount(ctx context.Context) error {
	return r.container.Update(ctx, nil)
}

// Inspect returns the committed work tree in pre-order.
func (r *Root) Inspect() []domain.WorkNodeInfo {
	return r.container.Inspect()
}

// Revision returns the number of render passes run so far.
func (r *Root) Revision() uint64 {
	return r.container.Revision()
}
