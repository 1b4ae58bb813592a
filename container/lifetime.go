package container

// Lifetime is the caching policy for a registered service's instances.
type Lifetime int

const (
	// Singleton services are constructed at most once per container, lazily
	// on first resolution, and cached in the root scope.
	Singleton Lifetime = iota

	// Scoped services are constructed at most once per [Scope]; distinct
	// scopes get distinct instances.
	Scoped

	// Transient services are constructed fresh on every resolution.
	Transient
)

// String returns the human-readable name of the lifetime.
func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Scoped:
		return "scoped"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}

// outlives reports whether instances with lifetime l live longer than
// instances with lifetime other. The constants are declared in decreasing
// longevity order.
func (l Lifetime) outlives(other Lifetime) bool {
	return l < other
}
