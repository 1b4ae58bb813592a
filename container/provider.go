package container

import "fmt"

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related registrations with a two-phase lifecycle.
//
// Register binds services into the builder; nothing can be resolved yet.
// Boot runs after the container is built, so it may resolve any binding —
// use it for work that needs other providers' services.
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(b *container.Builder) error {
//	    return b.Register("logger", container.Singleton, newLogger)
//	}
//
//	func (p *AppServiceProvider) Boot(root *container.Scope) error {
//	    logger := container.MustResolve[*log.Logger](root, "logger")
//	    logger.Println("application booted")
//	    return nil
//	}
type ServiceProvider interface {
	// Register binds services into the builder.
	// Do NOT resolve anything here — the container does not exist yet.
	Register(b *Builder) error

	// Boot is called with the built container's root scope, after all
	// providers have registered. Safe to resolve any binding here.
	Boot(root *Scope) error
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct providing a no-op Boot. Embed it and
// override only what you need.
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(b *container.Builder) error { ... }
type BaseProvider struct{}

func (BaseProvider) Boot(_ *Scope) error { return nil }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry drives the register → build → boot sequence over a set
// of ServiceProviders.
type ProviderRegistry struct {
	builder    *Builder
	providers  []ServiceProvider
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry feeding the given builder.
func NewProviderRegistry(b *Builder) *ProviderRegistry {
	return &ProviderRegistry{
		builder:    b,
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and immediately runs its Register phase.
// Registering the same provider instance twice is a no-op.
func (r *ProviderRegistry) Register(p ServiceProvider) error {
	if r.registered[p] {
		return nil
	}
	if err := p.Register(r.builder); err != nil {
		return fmt.Errorf("provider %T: %w", p, err)
	}
	r.registered[p] = true
	r.providers = append(r.providers, p)
	return nil
}

// Boot runs the Boot phase of every provider, in registration order,
// against the built container's root scope. Must be called after
// [Builder.Build]; the first boot failure aborts the sequence. Repeat calls
// are no-ops.
func (r *ProviderRegistry) Boot(c *Container) error {
	if r.booted {
		return nil
	}
	r.booted = true
	for _, p := range r.providers {
		if err := p.Boot(c.Root()); err != nil {
			return fmt.Errorf("booting provider %T: %w", p, err)
		}
	}
	return nil
}

// Booted returns true once Boot has run.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns the registered providers in registration order.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.providers }
