package container

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ── Builder options ───────────────────────────────────────────────────────────

// BuilderOption configures a [Builder].
type BuilderOption func(*Builder)

// AllowOverride switches the duplicate-registration policy from strict
// (register twice → [ErrDuplicateRegistration]) to last-registration-wins.
func AllowOverride() BuilderOption {
	return func(b *Builder) {
		b.override = true
	}
}

// WithWarningHandler installs a callback invoked by Build for every
// [CaptiveDependencyWarning]. Warnings are also retrievable afterwards via
// [Container.Warnings].
func WithWarningHandler(fn func(CaptiveDependencyWarning)) BuilderOption {
	return func(b *Builder) {
		b.warnFn = fn
	}
}

// ── Builder ───────────────────────────────────────────────────────────────────

// Builder is the mutable registry of service descriptors. It accepts
// registrations until [Builder.Build] freezes it into a [Container]; every
// registration method afterwards fails with [ErrAlreadyBuilt].
type Builder struct {
	mu sync.Mutex

	descriptors map[Key]*Descriptor
	groups      map[string][]Key  // service → ordered collection entries
	aliases     map[string]string // alias → service
	decorators  map[Key][]Decorator
	services    map[string]bool // every service name seen, keyed or not

	override bool
	warnFn   func(CaptiveDependencyWarning)
	built    bool
}

// New creates an empty [Builder].
func New(opts ...BuilderOption) *Builder {
	b := &Builder{
		descriptors: make(map[Key]*Descriptor),
		groups:      make(map[string][]Key),
		aliases:     make(map[string]string),
		decorators:  make(map[Key][]Decorator),
		services:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register adds a factory for a service under the given lifetime.
//
//	b.Register("cache", container.Singleton, func(ctx context.Context, s *container.Scope) (any, error) {
//	    return cache.New(), nil
//	})
//
// Use [WithName] to add a keyed registration and [DependsOn] to declare the
// factory's dependencies for build-time checks.
func (b *Builder) Register(service string, lifetime Lifetime, factory Factory, opts ...RegisterOption) error {
	reg := applyOptions(opts)
	return b.add(Key{Service: service, Name: reg.name}, &Descriptor{
		lifetime: lifetime,
		factory:  factory,
		deps:     reg.deps,
	})
}

// RegisterInstance adds a pre-built value as a singleton. The container did
// not create the value, so it never tracks it for disposal.
//
//	b.RegisterInstance("config", cfg)
func (b *Builder) RegisterInstance(service string, value any, opts ...RegisterOption) error {
	reg := applyOptions(opts)
	return b.add(Key{Service: service, Name: reg.name}, &Descriptor{
		lifetime: Singleton,
		factory: func(context.Context, *Scope) (any, error) {
			return value, nil
		},
		deps:     reg.deps,
		prebuilt: true,
	})
}

// RegisterCollection appends an implementation to the service's multi-bind
// group. [Scope.ResolveAll] returns group instances in registration order.
// Entries are discriminated positionally; [WithName] is ignored here.
func (b *Builder) RegisterCollection(service string, lifetime Lifetime, factory Factory, opts ...RegisterOption) error {
	reg := applyOptions(opts)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return ErrAlreadyBuilt
	}
	if err := validate(service, factory); err != nil {
		return err
	}

	key := Key{Service: service, Name: fmt.Sprintf("#%d", len(b.groups[service]))}
	b.descriptors[key] = &Descriptor{
		key:      key,
		lifetime: lifetime,
		factory:  factory,
		deps:     reg.deps,
	}
	b.groups[service] = append(b.groups[service], key)
	b.services[service] = true
	return nil
}

// Alias registers an alternative name for a service. The alias resolves to
// the same descriptor and therefore the same cached instance.
func (b *Builder) Alias(alias, service string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return ErrAlreadyBuilt
	}
	if alias == service {
		return fmt.Errorf("container: alias %q points to itself", alias)
	}
	if _, exists := b.aliases[alias]; exists && !b.override {
		return fmt.Errorf("%w: alias %q", ErrDuplicateRegistration, alias)
	}
	b.aliases[alias] = service
	return nil
}

// Decorate wraps the service's instance after construction and before
// caching. Decorators run in registration order. Use [WithName] to decorate
// a keyed registration. Build fails if no registration matches the key.
//
//	b.Decorate("logger", func(v any, s *container.Scope) any {
//	    return &timestampLogger{inner: v.(Logger)}
//	})
func (b *Builder) Decorate(service string, d Decorator, opts ...RegisterOption) error {
	reg := applyOptions(opts)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return ErrAlreadyBuilt
	}
	key := Key{Service: service, Name: reg.name}
	b.decorators[key] = append(b.decorators[key], d)
	return nil
}

// Has reports whether any registration or alias exists for the service.
func (b *Builder) Has(service string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hasService(service)
}

// add inserts a descriptor under the duplicate policy.
func (b *Builder) add(key Key, d *Descriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return ErrAlreadyBuilt
	}
	if err := validate(key.Service, d.factory); err != nil {
		return err
	}
	if _, exists := b.descriptors[key]; exists && !b.override {
		return fmt.Errorf("%w: %s", ErrDuplicateRegistration, key)
	}

	d.key = key
	b.descriptors[key] = d
	b.services[key.Service] = true
	return nil
}

func validate(service string, factory Factory) error {
	if service == "" {
		return errors.New("container: service name cannot be empty")
	}
	if factory == nil {
		return errors.New("container: factory cannot be nil")
	}
	return nil
}

func applyOptions(opts []RegisterOption) registration {
	var reg registration
	for _, opt := range opts {
		opt(&reg)
	}
	return reg
}

// hasService must be called with b.mu held.
func (b *Builder) hasService(service string) bool {
	if b.services[service] {
		return true
	}
	target, ok := b.aliases[service]
	return ok && b.services[target]
}

// ── Build ─────────────────────────────────────────────────────────────────────

// Build validates the registrations and freezes them into a [Container].
// Validation is fail-fast: a dangling alias, a declared-but-missing
// dependency, or a statically declared cycle aborts the build with
// [ErrUnresolvableGraph] and no container is produced. Captive-dependency
// findings are collected as warnings, not errors.
func (b *Builder) Build() (*Container, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return nil, ErrAlreadyBuilt
	}

	for alias, service := range b.aliases {
		if !b.services[service] {
			return nil, fmt.Errorf("%w: alias %q points to unregistered service %q",
				ErrUnresolvableGraph, alias, service)
		}
	}

	for _, d := range b.descriptors {
		for _, dep := range d.deps {
			if !b.hasService(dep) {
				return nil, fmt.Errorf("%w: %s requires unregistered service %q",
					ErrUnresolvableGraph, d.key, dep)
			}
		}
	}

	if err := b.resolveDecorators(); err != nil {
		return nil, err
	}

	if err := b.checkDeclaredCycles(); err != nil {
		return nil, err
	}

	warnings := b.captiveWarnings()
	if b.warnFn != nil {
		for _, w := range warnings {
			b.warnFn(w)
		}
	}

	b.built = true

	c := &Container{
		descriptors: b.descriptors,
		groups:      b.groups,
		aliases:     b.aliases,
		decorators:  b.decorators,
		warnings:    warnings,
	}
	c.root = newScope(c, nil)
	return c, nil
}

// resolveDecorators rejects decorators for keys no registration matches and
// folds decorators registered under an alias onto the target key, so the
// resolver only ever consults canonical keys. Must be called with b.mu held.
func (b *Builder) resolveDecorators() error {
	keys := make([]Key, 0, len(b.decorators))
	for k := range b.decorators {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	for _, k := range keys {
		canonical := k
		if target, ok := b.aliases[k.Service]; ok {
			canonical = Key{Service: target, Name: k.Name}
		}
		if _, ok := b.descriptors[canonical]; !ok {
			return fmt.Errorf("%w: decorator for unregistered service %s",
				ErrUnresolvableGraph, k)
		}
		if canonical != k {
			b.decorators[canonical] = append(b.decorators[canonical], b.decorators[k]...)
			delete(b.decorators, k)
		}
	}
	return nil
}

type walkState int

const (
	unvisited walkState = iota
	visiting
	visited
)

// checkDeclaredCycles walks the declared dependency graph depth-first at
// service-name granularity. Best-effort: only DependsOn declarations are
// visible here; undeclared cycles are still caught at resolve time.
func (b *Builder) checkDeclaredCycles() error {
	edges := make(map[string][]string)
	for _, d := range b.descriptors {
		svc := d.key.Service
		edges[svc] = append(edges[svc], d.deps...)
	}

	roots := make([]string, 0, len(edges))
	for svc := range edges {
		roots = append(roots, svc)
	}
	sort.Strings(roots) // deterministic walk order

	states := make(map[string]walkState)
	for _, svc := range roots {
		if err := b.walk(svc, edges, states, nil); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) walk(service string, edges map[string][]string, states map[string]walkState, stack []string) error {
	if target, ok := b.aliases[service]; ok {
		service = target
	}

	switch states[service] {
	case visiting:
		chain := append(append([]string{}, stack...), service)
		return fmt.Errorf("%w: declared cycle %s", ErrUnresolvableGraph, strings.Join(chain, " -> "))
	case visited:
		return nil
	}

	states[service] = visiting
	stack = append(stack, service)
	for _, dep := range edges[service] {
		if err := b.walk(dep, edges, states, stack); err != nil {
			return err
		}
	}
	states[service] = visited
	return nil
}

// captiveWarnings compares each descriptor's lifetime against its declared
// dependencies' lifetimes. Registration-time lifetime comparison only — not
// a runtime proof.
func (b *Builder) captiveWarnings() []CaptiveDependencyWarning {
	var out []CaptiveDependencyWarning
	for _, d := range b.descriptors {
		if d.lifetime != Singleton {
			continue
		}
		for _, dep := range d.deps {
			service := dep
			if target, ok := b.aliases[service]; ok {
				service = target
			}
			depDesc, ok := b.descriptors[Key{Service: service}]
			if !ok {
				continue // keyed-only or collection; nothing to compare against
			}
			if d.lifetime.outlives(depDesc.lifetime) {
				out = append(out, CaptiveDependencyWarning{
					Key:                d.key,
					KeyLifetime:        d.lifetime,
					Dependency:         depDesc.key,
					DependencyLifetime: depDesc.lifetime,
				})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key.String() < out[j].Key.String()
		}
		return out[i].Dependency.String() < out[j].Dependency.String()
	})
	return out
}
