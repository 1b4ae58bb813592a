// Package container provides a service container with typed registration,
// lifetime-scoped resolution, and ordered disposal.
//
// # Overview
//
// Services are registered into a [Builder] as explicit factory functions
// under a string key, each with a [Lifetime]. Calling [Builder.Build]
// validates the registrations and freezes them into an immutable
// [Container]; after that the only mutable state is the per-scope instance
// caches. There is no reflection and no auto-wiring — a factory states its
// dependencies by resolving them from the scope it is handed.
//
// # Container Lifecycle
//
//  1. Create: b := container.New()
//  2. Register: b.Register("logger", container.Singleton, newLogger)
//  3. Build: c, err := b.Build()   — registrations are frozen here
//  4. Resolve: c.Resolve("logger"), or from scopes
//  5. Teardown: c.Close(ctx)       — disposes singletons in reverse order
//
// # Lifetimes
//
//	// Singleton — one instance for the container's lifetime, created lazily
//	b.Register("cache", container.Singleton, func(ctx context.Context, s *container.Scope) (any, error) {
//	    return cache.New(), nil
//	})
//
//	// Scoped — one instance per scope
//	b.Register("repo", container.Scoped, newRepo)
//
//	// Transient — a fresh instance on every resolve
//	b.Register("command", container.Transient, newCommand)
//
// # Scopes
//
// A [Scope] is a unit-of-work boundary. Scoped instances are cached per
// scope; instances implementing io.Closer are tracked and closed in reverse
// creation order when the scope closes:
//
//	s := c.NewScope()
//	defer s.Close()
//	repo, err := container.Resolve[*Repo](s, "repo")
//
// The container's root scope owns singletons and lives until
// [Container.Close].
//
// # Keyed and Collection Registration
//
// Several implementations of one capability can coexist under discriminators
// or as an ordered group:
//
//	b.Register("cache", container.Singleton, newRedis, container.WithName("redis"))
//	b.Register("cache", container.Singleton, newMemory, container.WithName("memory"))
//	v, err := s.ResolveKeyed("cache", "redis")
//
//	b.Collection("report").
//	    Add(container.Singleton, newCPUReport).
//	    Add(container.Singleton, newMemReport)
//	reports, err := s.ResolveAll("report") // registration order
//
// # Dependencies and Diagnostics
//
// Factories resolve their dependencies through the scope they receive and
// must pass their context along, which lets the resolver detect cycles at
// runtime and report the full chain:
//
//	b.Register("service", container.Transient, func(ctx context.Context, s *container.Scope) (any, error) {
//	    logger, err := container.ResolveContext[*log.Logger](ctx, s, "logger")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return &Service{Log: logger}, nil
//	}, container.DependsOn("logger"))
//
// Declaring dependencies with [DependsOn] is optional; when present, Build
// verifies they exist, rejects statically declared cycles, and emits a
// [CaptiveDependencyWarning] for a singleton that depends on a scoped or
// transient service.
//
// # Service Providers
//
// Registration can be organised into [ServiceProvider] values with separate
// register and boot phases, driven by a [ProviderRegistry]:
//
//	reg := container.NewProviderRegistry(b)
//	reg.Register(&AppServiceProvider{})
//	c, _ := b.Build()
//	reg.Boot(c)
package container
