package container

import "context"

// Container is the frozen result of [Builder.Build]: an immutable descriptor
// table plus a root scope that owns singleton instances. The descriptor
// table needs no locking; only the per-scope instance caches are mutable.
type Container struct {
	descriptors map[Key]*Descriptor
	groups      map[string][]Key
	aliases     map[string]string
	decorators  map[Key][]Decorator
	warnings    []CaptiveDependencyWarning

	root *Scope
}

// Root returns the root scope. It lives until [Container.Close] and owns
// every singleton.
func (c *Container) Root() *Scope {
	return c.root
}

// NewScope opens a fresh scope with empty caches, sharing the container's
// descriptor table. Close the scope when its unit of work ends.
func (c *Container) NewScope() *Scope {
	return newScope(c, c.root)
}

// Has reports whether any registration or alias exists for the service.
func (c *Container) Has(service string) bool {
	service = c.canonical(service)
	if _, ok := c.descriptors[Key{Service: service}]; ok {
		return true
	}
	if len(c.groups[service]) > 0 {
		return true
	}
	for k := range c.descriptors {
		if k.Service == service {
			return true
		}
	}
	return false
}

// Warnings returns the captive-dependency findings collected during Build.
func (c *Container) Warnings() []CaptiveDependencyWarning {
	out := make([]CaptiveDependencyWarning, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Resolve resolves a service against the root scope. Shorthand for
// c.Root().Resolve(service).
func (c *Container) Resolve(service string) (any, error) {
	return c.root.Resolve(service)
}

// Close tears the container down: every singleton disposable created over
// the container's lifetime is closed in reverse creation order, all
// failures aggregated into a [DisposalError]. If ctx expires, remaining
// disposables are skipped and the context error is included. Subsequent
// calls are no-ops returning nil.
func (c *Container) Close(ctx context.Context) error {
	return c.root.close(ctx)
}

// canonical follows an alias to its target service name.
func (c *Container) canonical(service string) string {
	if target, ok := c.aliases[service]; ok {
		return target
	}
	return service
}
