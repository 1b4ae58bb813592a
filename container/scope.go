package container

import (
	"context"
	"io"
	"sync"
)

type scopeState int

const (
	scopeActive scopeState = iota
	scopeDisposing
	scopeDisposed
)

// Scope is a unit-of-work boundary. It caches scoped instances, tracks the
// disposables created within it, and closes them in reverse creation order
// when the scope ends. Scopes share the container's frozen descriptor table
// and own no registrations of their own.
//
// All methods are safe for concurrent use.
type Scope struct {
	c      *Container
	parent *Scope

	mu        sync.Mutex
	state     scopeState
	instances map[Key]any
	locks     map[Key]*sync.Mutex // per-key construction locks
	closers   []io.Closer         // creation order
}

func newScope(c *Container, parent *Scope) *Scope {
	return &Scope{
		c:         c,
		parent:    parent,
		instances: make(map[Key]any),
		locks:     make(map[Key]*sync.Mutex),
	}
}

// Container returns the owning container.
func (s *Scope) Container() *Container {
	return s.c
}

// active reports whether the scope still accepts resolutions.
func (s *Scope) active() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != scopeActive {
		return ErrScopeDisposed
	}
	return nil
}

// entry is the lock-free-read half of the double-checked construction
// pattern: it returns the cached instance if present, otherwise the per-key
// construction lock the caller must take before building.
func (s *Scope) entry(k Key) (any, bool, *sync.Mutex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != scopeActive {
		return nil, false, nil, ErrScopeDisposed
	}
	if v, ok := s.instances[k]; ok {
		return v, true, nil, nil
	}
	l, ok := s.locks[k]
	if !ok {
		l = &sync.Mutex{}
		s.locks[k] = l
	}
	return nil, false, l, nil
}

// store caches a constructed instance. Dropped silently if the scope closed
// while the factory ran.
func (s *Scope) store(k Key, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != scopeActive {
		return
	}
	s.instances[k] = v
}

// track records a disposable instance in creation order.
func (s *Scope) track(v any) {
	closer, ok := v.(io.Closer)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != scopeActive {
		return
	}
	s.closers = append(s.closers, closer)
}

// Close ends the scope: every tracked disposable is closed in reverse
// creation order, each one getting a chance to run; failures are aggregated
// into a [DisposalError]. Close is idempotent — concurrent or repeated
// calls after the first are no-ops returning nil. Resolutions after Close
// fail with [ErrScopeDisposed].
func (s *Scope) Close() error {
	return s.close(context.Background())
}

func (s *Scope) close(ctx context.Context) error {
	s.mu.Lock()
	if s.state != scopeActive {
		s.mu.Unlock()
		return nil
	}
	s.state = scopeDisposing
	closers := s.closers
	s.closers = nil
	s.instances = nil
	s.locks = nil
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	s.mu.Lock()
	s.state = scopeDisposed
	s.mu.Unlock()

	if len(errs) > 0 {
		return &DisposalError{Errors: errs}
	}
	return nil
}
