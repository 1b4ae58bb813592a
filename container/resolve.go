package container

import (
	"context"
	"fmt"
)

// ── Scope resolution surface ──────────────────────────────────────────────────

// Resolve returns the instance for the service's default registration.
func (s *Scope) Resolve(service string) (any, error) {
	return s.ResolveContext(context.Background(), service)
}

// ResolveContext is [Scope.Resolve] with a context. Cancellation is honored
// between dependency-graph nodes only; a factory already running is never
// interrupted, so no half-built instance is ever cached.
func (s *Scope) ResolveContext(ctx context.Context, service string) (any, error) {
	return s.resolveKey(ctx, Key{Service: s.c.canonical(service)})
}

// ResolveKeyed returns the instance for the registration discriminated by
// name ([WithName]).
func (s *Scope) ResolveKeyed(service, name string) (any, error) {
	return s.ResolveKeyedContext(context.Background(), service, name)
}

// ResolveKeyedContext is [Scope.ResolveKeyed] with a context.
func (s *Scope) ResolveKeyedContext(ctx context.Context, service, name string) (any, error) {
	return s.resolveKey(ctx, Key{Service: s.c.canonical(service), Name: name})
}

// ResolveAll returns one instance per collection registration of the
// service, in registration order. No registrations yield an empty slice,
// not an error.
func (s *Scope) ResolveAll(service string) ([]any, error) {
	return s.ResolveAllContext(context.Background(), service)
}

// ResolveAllContext is [Scope.ResolveAll] with a context.
func (s *Scope) ResolveAllContext(ctx context.Context, service string) ([]any, error) {
	keys := s.c.groups[s.c.canonical(service)]
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		v, err := s.resolveKey(ctx, k)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// TryResolve is the non-failing variant of [Scope.Resolve] for optional
// dependencies: an unregistered service returns (nil, false, nil) instead
// of [ErrNotFound]. Factory failures are still reported.
func (s *Scope) TryResolve(service string) (any, bool, error) {
	return s.TryResolveContext(context.Background(), service)
}

// TryResolveContext is [Scope.TryResolve] with a context.
func (s *Scope) TryResolveContext(ctx context.Context, service string) (any, bool, error) {
	k := Key{Service: s.c.canonical(service)}
	if _, ok := s.c.descriptors[k]; !ok {
		return nil, false, nil
	}
	v, err := s.resolveKey(ctx, k)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// ── Resolution algorithm ──────────────────────────────────────────────────────

// chainKey carries the stack of in-progress keys through the contexts
// handed to factories, so nested resolves detect cycles across factory
// boundaries.
type chainKey struct{}

func chainFrom(ctx context.Context) []Key {
	chain, _ := ctx.Value(chainKey{}).([]Key)
	return chain
}

func (s *Scope) resolveKey(ctx context.Context, k Key) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolving %s: %w", k, err)
	}
	// The calling scope must be alive regardless of lifetime; the owning
	// scope's caches enforce it again for singleton and scoped keys.
	if err := s.active(); err != nil {
		return nil, fmt.Errorf("resolving %s: %w", k, err)
	}

	d, ok := s.c.descriptors[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, k)
	}

	chain := chainFrom(ctx)
	for _, seen := range chain {
		if seen == k {
			return nil, &CycleError{Chain: appendKey(chain, k)}
		}
	}
	ctx = context.WithValue(ctx, chainKey{}, appendKey(chain, k))

	switch d.lifetime {
	case Transient:
		// Always fresh; dependencies and disposal belong to the calling
		// scope, so a transient observes scoped state correctly.
		return s.construct(ctx, d, s)
	case Scoped:
		return s.cachedConstruct(ctx, d, s)
	default: // Singleton
		return s.cachedConstruct(ctx, d, s.c.root)
	}
}

// cachedConstruct returns owner's cached instance for d, constructing it at
// most once under the key's lock. Double-checked: the common cached-read
// path takes only the scope's short cache lock, and concurrent first
// resolutions serialize on the per-key lock so exactly one factory
// invocation happens.
func (s *Scope) cachedConstruct(ctx context.Context, d *Descriptor, owner *Scope) (any, error) {
	v, ok, lock, err := owner.entry(d.key)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", d.key, err)
	}
	if ok {
		return v, nil
	}

	lock.Lock()
	defer lock.Unlock()

	v, ok, _, err = owner.entry(d.key)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", d.key, err)
	}
	if ok {
		return v, nil
	}

	v, err = s.construct(ctx, d, owner)
	if err != nil {
		// Not cached: the per-key lock releases and a later resolve retries.
		return nil, err
	}
	owner.store(d.key, v)
	return v, nil
}

// construct invokes the factory against deps — the scope the instance's own
// dependencies resolve from and the scope that owns its disposal.
func (s *Scope) construct(ctx context.Context, d *Descriptor, deps *Scope) (any, error) {
	v, err := d.factory(ctx, deps)
	if err != nil {
		return nil, fmt.Errorf("constructing %s: %w", d.key, err)
	}
	for _, dec := range s.c.decorators[d.key] {
		v = dec(v, deps)
	}
	if !d.prebuilt {
		deps.track(v)
	}
	return v, nil
}

func appendKey(chain []Key, k Key) []Key {
	next := make([]Key, len(chain)+1)
	copy(next, chain)
	next[len(chain)] = k
	return next
}

// ── Generic helpers ───────────────────────────────────────────────────────────

// Resolve is a generic helper that resolves and type-asserts in one call:
//
//	repo, err := container.Resolve[*Repo](s, "repo")
func Resolve[T any](s *Scope, service string) (T, error) {
	return ResolveContext[T](context.Background(), s, service)
}

// ResolveContext is the generic helper factories should use so the
// resolution chain in ctx flows through.
func ResolveContext[T any](ctx context.Context, s *Scope, service string) (T, error) {
	var zero T
	v, err := s.ResolveContext(ctx, service)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: %s resolved to %T, not %T", service, v, zero)
	}
	return typed, nil
}

// ResolveKeyed is the generic helper for keyed registrations.
func ResolveKeyed[T any](s *Scope, service, name string) (T, error) {
	var zero T
	v, err := s.ResolveKeyed(service, name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: %s resolved to %T, not %T", Key{Service: service, Name: name}, v, zero)
	}
	return typed, nil
}

// ResolveAll is the generic helper for collection registrations.
func ResolveAll[T any](s *Scope, service string) ([]T, error) {
	vs, err := s.ResolveAll(service)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		typed, ok := v.(T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("container: %s element resolved to %T, not %T", service, v, zero)
		}
		out = append(out, typed)
	}
	return out, nil
}

// MustResolve is like [Resolve] but panics on failure. For bootstrap code
// where a missing registration is a programming error.
func MustResolve[T any](s *Scope, service string) T {
	v, err := Resolve[T](s, service)
	if err != nil {
		panic(fmt.Sprintf("container: MustResolve %s: %v", service, err))
	}
	return v
}
