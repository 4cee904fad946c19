package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
	"github.com/aretw0/arbor/pkg/ports"
)

// Container binds a host container node to a double-buffered work tree.
// It is not safe for concurrent use; callers serialize access per container.
type Container struct {
	name     string
	host     ports.Host
	arena    *arena
	current  NodeID
	revision uint64

	rendering bool // a pass is running; updates are deferred

	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the structured logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Container) {
		c.hooks = hooks
	}
}

// WithName labels the container in logs and events.
func WithName(name string) Option {
	return func(c *Container) {
		c.name = name
	}
}

// NewContainer creates the current root work node for containerNode.
func NewContainer(host ports.Host, containerNode ports.HostNode, opts ...Option) *Container {
	c := &Container{
		name:   "root",
		host:   host,
		arena:  newArena(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("root", c.name)

	root := c.arena.alloc(domain.KindRoot, element.Props{}, element.NoKey)
	n := c.arena.get(root)
	n.host = containerNode
	n.updateQueue = &updateQueue{}
	c.current = root
	return c
}

// Update stores el as the pending root element and renders it synchronously.
// A second Update before the pending one is processed replaces it.
// When called while a pass is running (from a hook, a component or a host
// side effect) the update is only queued and the running Update renders it
// once the current pass has finished.
func (c *Container) Update(ctx context.Context, el any) error {
	queue := c.arena.get(c.current).updateQueue
	queue.pending = &pendingUpdate{element: el}

	if c.rendering {
		c.logger.Debug("update deferred until the running pass completes")
		return nil
	}
	c.rendering = true
	defer func() { c.rendering = false }()

	var errs []error
	for queue.pending != nil {
		upd := queue.pending
		if err := c.performSyncWork(ctx); err != nil {
			errs = append(errs, err)
		}
		if queue.pending == upd {
			// the pass died before consuming the update
			queue.pending = nil
		}
	}
	return errors.Join(errs...)
}

// Revision returns the number of passes started so far.
func (c *Container) Revision() uint64 {
	return c.revision
}

// LiveNodes returns the number of work nodes held by the arena, both generations included.
func (c *Container) LiveNodes() int {
	return c.arena.live
}

func (c *Container) performSyncWork(ctx context.Context) error {
	c.revision++
	start := time.Now()
	logger := c.logger.With("revision", c.revision)

	if c.hooks.OnPassStart != nil {
		c.hooks.OnPassStart(ctx, &domain.PassEvent{Root: c.name, Revision: c.revision})
	}

	finished, err := c.renderRoot(logger)
	if err != nil {
		logger.Error("render pass aborted", "err", err)
		if c.hooks.OnPassAbort != nil {
			c.hooks.OnPassAbort(ctx, &domain.PassEvent{
				Root:     c.name,
				Revision: c.revision,
				Duration: time.Since(start),
				Err:      err,
			})
		}
		return err
	}

	return c.commitRoot(ctx, logger, finished)
}

// renderRoot runs the begin/complete work loop over a fresh in-progress
// tree and returns its root. On failure the in-progress tree is discarded.
func (c *Container) renderRoot(logger *slog.Logger) (NodeID, error) {
	p := &pass{Container: c, logger: logger}
	wip := p.deriveInProgress(c.current, c.arena.get(c.current).pendingProps)

	loop := &workLoop{pass: p, next: wip}
	if err := loop.run(); err != nil {
		p.discard()
		return none, fmt.Errorf("%w: %w", domain.ErrPassAborted, err)
	}
	return wip, nil
}

// pass holds the state of one render pass.
type pass struct {
	*Container
	logger    *slog.Logger
	allocated []NodeID
}

func (p *pass) alloc(kind domain.Kind, props element.Props, key element.Key) NodeID {
	id := p.arena.alloc(kind, props, key)
	p.allocated = append(p.allocated, id)
	return id
}

// discard releases every node allocated by the pass and unlinks the
// counterparts it attached to current nodes, leaving the current tree as it was.
func (p *pass) discard() {
	for _, id := range p.allocated {
		n := p.arena.get(id)
		if alt := n.alternate; alt != none {
			if a := p.arena.get(alt); a.alternate == id {
				a.alternate = none
			}
		}
		p.arena.release(id)
	}
	p.allocated = nil
}

// diagnostic reports an unreachable state. The offending node is skipped.
func (p *pass) diagnostic(msg string, id NodeID, args ...any) {
	n := p.arena.get(id)
	attrs := append([]any{"node", id, "kind", n.kind.String(), "type", element.TypeName(n.typ)}, args...)
	p.logger.Warn(msg, attrs...)
}
