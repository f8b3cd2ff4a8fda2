package kernel

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/mpieniak01/Venom-sub010/internal/middleware"
)

// Generator is the external "generate" capability the kernel exposes.
type Generator interface {
	// Generate produces text for the given prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Handle is an immutable materialized kernel: a configuration, its hash,
// and the generator built from it. Handle identity is stable until the
// configuration hash changes, so consumers may compare pointers.
type Handle struct {
	cfg  Config
	hash string
	gen  Generator
}

// Config returns the configuration this handle was built from.
func (h *Handle) Config() Config { return h.cfg }

// Hash returns the configuration hash.
func (h *Handle) Hash() string { return h.hash }

// Generate produces text using this handle's generator.
func (h *Handle) Generate(ctx context.Context, prompt string) (string, error) {
	return h.gen.Generate(ctx, prompt)
}

// NewHandle materializes a handle directly from a configuration and a
// pre-built generator, bypassing the manager. Useful for embedding and
// for tests that stub generation.
func NewHandle(cfg Config, gen Generator) *Handle {
	return &Handle{cfg: cfg, hash: cfg.Hash(), gen: gen}
}

// Builder materializes a Generator from a Config. Injected so the model
// backend stays swappable and rebuild counting stays testable.
type Builder func(Config) (Generator, error)

// Manager owns the process-wide kernel handle. Readers use the lazily
// refreshed handle; writers install a new handle atomically so a reader
// sees either the fully-old or fully-new kernel, never a partial one.
type Manager struct {
	source  ConfigSource
	build   Builder
	broker  *middleware.Broker

	mu      sync.Mutex
	current *Handle
}

// NewManager creates a kernel lifecycle manager. The broker is optional;
// when set, refreshes and degraded-mode warnings are emitted as events.
func NewManager(source ConfigSource, build Builder, broker *middleware.Broker) *Manager {
	return &Manager{source: source, build: build, broker: broker}
}

// ActiveHandle returns the current kernel handle, rebuilding it first when
// the stored configuration hash differs from the materialized one. When a
// rebuild fails and a previous handle exists, the manager keeps serving
// the last good kernel and reports degraded mode instead of failing.
func (m *Manager) ActiveHandle() (*Handle, error) {
	cfg, err := m.source.Current()
	if err != nil {
		return m.lastGoodOr(fmt.Errorf("kernel config source: %w", middleware.ErrDependencyUnavailable))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	hash := cfg.Hash()
	if m.current != nil && m.current.hash == hash {
		return m.current, nil
	}
	return m.rebuildLocked(cfg, hash)
}

// ForceRefresh rebuilds the kernel handle unconditionally, bypassing hash
// comparison. Used after a manual configuration change.
func (m *Manager) ForceRefresh() (*Handle, error) {
	cfg, err := m.source.Current()
	if err != nil {
		return m.lastGoodOr(fmt.Errorf("kernel config source: %w", middleware.ErrDependencyUnavailable))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rebuildLocked(cfg, cfg.Hash())
}

// rebuildLocked materializes a new handle. Callers hold m.mu.
func (m *Manager) rebuildLocked(cfg Config, hash string) (*Handle, error) {
	gen, err := m.build(cfg)
	if err != nil {
		if m.current != nil {
			log.Printf("[kernel] rebuild failed, serving last good kernel %s: %v", shortHash(m.current.hash), err)
			m.emit(middleware.EventKernelDegraded, map[string]interface{}{
				"error":        err.Error(),
				"serving_hash": m.current.hash,
			})
			return m.current, nil
		}
		return nil, fmt.Errorf("build kernel: %w", middleware.ErrDependencyUnavailable)
	}

	m.current = &Handle{cfg: cfg, hash: hash, gen: gen}
	log.Printf("[kernel] kernel refreshed: model=%s hash=%s", cfg.Model, shortHash(hash))
	m.emit(middleware.EventKernelRefreshed, map[string]interface{}{
		"model": cfg.Model,
		"hash":  hash,
	})
	return m.current, nil
}

// lastGoodOr returns the last good handle when the config source is
// unreachable, or the given error when no handle exists yet.
func (m *Manager) lastGoodOr(err error) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		log.Printf("[kernel] config source unreachable, serving last good kernel: %v", err)
		return m.current, nil
	}
	return nil, err
}

func (m *Manager) emit(t middleware.EventType, payload map[string]interface{}) {
	if m.broker != nil {
		m.broker.Emit(middleware.Event{Type: t, Payload: payload})
	}
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
