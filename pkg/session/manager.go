package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// live is the in-process state of one session: a root rendering into its
// own memory host.
type live struct {
	root      *arbor.Root
	host      *memory.Host
	container *memory.Node
	revision  uint64

	// filled by hooks during the current render
	mutations []domain.MutationEvent
	commit    *domain.CommitEvent
}

// Result is the outcome of one render of a session.
type Result struct {
	Snapshot  *domain.Snapshot       `json:"snapshot"`
	Commit    *domain.CommitEvent    `json:"commit,omitempty"`
	Mutations []domain.MutationEvent `json:"mutations"`
}

// Manager keeps one live root per session and persists every committed
// render as a snapshot. Renders of one session are serialized; different
// sessions render concurrently.
type Manager struct {
	store    ports.SnapshotStore
	registry *registry.Registry

	mu    sync.Mutex            // guards locks and live
	locks map[string]*lockEntry // per-session locks, reference counted
	live  map[string]*live

	locker  ports.DistributedLocker // optional, for replicas sharing a store
	lockTTL time.Duration
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL bounds how long a distributed lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager and its roots.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithRegistry sets the components documents may reference.
func WithRegistry(reg *registry.Registry) Option {
	return func(m *Manager) {
		m.registry = reg
	}
}

// WithLifecycleHooks adds hooks to every session root, e.g. metrics.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// NewManager creates a Session Manager persisting to store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		registry: registry.NewDefault(),
		locks:    make(map[string]*lockEntry),
		live:     make(map[string]*live),
		lockTTL:  30 * time.Second,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Render decodes document, renders it into the session and stores the
// resulting snapshot. A session unknown to this process, or stored at a
// newer revision by another replica, is first restored from its stored
// snapshot, so only the delta is applied.
//
// When the pass aborts nothing is stored. When some host mutations fail
// (domain.ErrCommitIncomplete) the snapshot is stored and returned along
// with the error.
func (m *Manager) Render(ctx context.Context, sessionID string, document []byte, format dsl.Format) (*Result, error) {
	tree, err := dsl.Load(document, format, m.registry)
	if err != nil {
		return nil, err
	}

	var res *Result
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.session(ctx, sessionID)
		if err != nil {
			return err
		}

		s.mutations, s.commit = nil, nil
		_, renderErr := s.root.Render(ctx, tree)
		if renderErr != nil && !errors.Is(renderErr, domain.ErrCommitIncomplete) {
			return renderErr
		}

		snap := &domain.Snapshot{
			SessionID: sessionID,
			Revision:  s.revision + 1,
			Document:  append([]byte(nil), document...),
			HTML:      s.host.HTML(s.container),
			UpdatedAt: m.now().UTC(),
		}
		if err := m.store.Save(ctx, snap); err != nil {
			// the live tree is ahead of the store now; drop it
			m.mu.Lock()
			delete(m.live, sessionID)
			m.mu.Unlock()
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		s.revision = snap.Revision

		res = &Result{Snapshot: snap, Commit: s.commit, Mutations: s.mutations}
		return renderErr
	})
	return res, err
}

// session returns the live state of sessionID, kept in step with the store.
// Another replica may have rendered or deleted the session since this
// process last touched it; when the stored revision differs from the live
// one, the live root is rebuilt from the stored document. Callers hold the
// session lock.
func (m *Manager) session(ctx context.Context, sessionID string) (*live, error) {
	snap, err := m.store.Load(ctx, sessionID)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		snap = nil
	case err != nil:
		return nil, fmt.Errorf("failed to check session existence: %w", err)
	}
	return m.sync(ctx, sessionID, snap)
}

// sync reuses the live state when it matches snap (nil when nothing is
// stored) and restores it from snap otherwise.
func (m *Manager) sync(ctx context.Context, sessionID string, snap *domain.Snapshot) (*live, error) {
	var stored uint64
	if snap != nil {
		stored = snap.Revision
	}

	s, ok := m.peek(sessionID)
	if ok && s.revision == stored {
		return s, nil
	}
	if ok {
		m.logger.Debug("session changed in store, rebuilding",
			"session_id", sessionID, "live_revision", s.revision, "stored_revision", stored)
	}

	s = m.newLive(sessionID)
	if snap != nil {
		// YAML accepts JSON documents too
		tree, err := dsl.Load(snap.Document, dsl.FormatYAML, m.registry)
		if err != nil {
			return nil, fmt.Errorf("restore session %s: %w", sessionID, err)
		}
		if _, err := s.root.Render(ctx, tree); err != nil {
			return nil, fmt.Errorf("restore session %s: %w", sessionID, err)
		}
		s.revision = snap.Revision
		m.logger.Debug("session restored", "session_id", sessionID, "revision", snap.Revision)
	}

	m.mu.Lock()
	m.live[sessionID] = s
	m.mu.Unlock()
	return s, nil
}

func (m *Manager) newLive(sessionID string) *live {
	s := &live{host: memory.NewHost()}
	s.container = s.host.NewContainer()
	capture := domain.LifecycleHooks{
		OnMutation: func(_ context.Context, e *domain.MutationEvent) {
			s.mutations = append(s.mutations, *e)
		},
		OnCommit: func(_ context.Context, e *domain.CommitEvent) {
			s.commit = e
		},
	}
	s.root = arbor.CreateRoot(s.host, s.container,
		arbor.WithName(sessionID),
		arbor.WithLogger(m.logger.With("session_id", sessionID)),
		arbor.WithLifecycleHooks(domain.MergeHooks(capture, m.hooks)),
	)
	return s
}

// Get returns the last stored snapshot of the session.
func (m *Manager) Get(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return m.store.Load(ctx, sessionID)
}

// Inspect returns the committed work tree of the latest stored revision of
// the session, restoring it if needed.
func (m *Manager) Inspect(ctx context.Context, sessionID string) ([]domain.WorkNodeInfo, error) {
	var nodes []domain.WorkNodeInfo
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		snap, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		s, err := m.sync(ctx, sessionID, snap)
		if err != nil {
			return err
		}
		nodes = s.root.Inspect()
		return nil
	})
	return nodes, err
}

func (m *Manager) peek(sessionID string) (*live, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.live[sessionID]
	return s, ok
}

// Delete unmounts the session and removes its snapshot.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if s, ok := m.peek(sessionID); ok {
			if err := s.root.Unmount(ctx); err != nil {
				m.logger.Warn("unmount failed", "session_id", sessionID, "err", err)
			}
			m.mu.Lock()
			delete(m.live, sessionID)
			m.mu.Unlock()
		}
		return m.store.Delete(ctx, sessionID)
	})
}

// Evict drops the in-process state of a session. Its snapshot stays stored
// and the next render restores it.
func (m *Manager) Evict(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		delete(m.live, sessionID)
		m.mu.Unlock()
		return nil
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// Live returns how many sessions are held in memory.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
