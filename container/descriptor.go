package container

import "context"

// ── Keys ──────────────────────────────────────────────────────────────────────

// Key identifies a registration: a service name plus an optional
// discriminator for keyed registration. The zero Name is the default
// (unkeyed) registration of the service.
type Key struct {
	Service string
	Name    string
}

// String renders the key as "service" or "service:name".
func (k Key) String() string {
	if k.Name == "" {
		return k.Service
	}
	return k.Service + ":" + k.Name
}

// ── Factories ─────────────────────────────────────────────────────────────────

// Factory constructs one instance of a service. It receives the scope its
// own dependencies must be resolved against and the caller's context, which
// it must pass into any nested resolve so cycle detection and cancellation
// can see through it. Factories may block or await asynchronous work; the
// container never interrupts a factory mid-construction.
type Factory func(ctx context.Context, s *Scope) (any, error)

// Decorator wraps an instance after its factory runs and before it is
// cached or handed to the caller.
type Decorator func(instance any, s *Scope) any

// ── Descriptors ───────────────────────────────────────────────────────────────

// Descriptor is the frozen registration of one service: its key, lifetime,
// factory, and optionally declared dependencies. Descriptors are immutable
// once the container is built.
type Descriptor struct {
	key      Key
	lifetime Lifetime
	factory  Factory
	deps     []string
	prebuilt bool // registered via RegisterInstance; not owned, never disposed
}

// Key returns the descriptor's key.
func (d *Descriptor) Key() Key { return d.key }

// Lifetime returns the descriptor's lifetime.
func (d *Descriptor) Lifetime() Lifetime { return d.lifetime }

// Dependencies returns the service names declared with [DependsOn].
func (d *Descriptor) Dependencies() []string {
	out := make([]string, len(d.deps))
	copy(out, d.deps)
	return out
}

// ── Registration options ──────────────────────────────────────────────────────

type registration struct {
	name string
	deps []string
}

// RegisterOption configures a single registration.
type RegisterOption func(*registration)

// WithName registers the service under a discriminator, resolvable with
// [Scope.ResolveKeyed]. Keyed registrations live alongside the default one.
func WithName(name string) RegisterOption {
	return func(r *registration) {
		r.name = name
	}
}

// DependsOn declares the service names this registration's factory resolves.
// Declarations are optional; Build uses them for missing-dependency and
// static-cycle checks and for captive-dependency warnings.
func DependsOn(services ...string) RegisterOption {
	return func(r *registration) {
		r.deps = append(r.deps, services...)
	}
}
