package container

// CollectionBuilder implements the fluent multi-bind registration API.
//
//	err := b.Collection("report").
//	    Add(container.Singleton, newCPUReport).
//	    Add(container.Singleton, newMemReport).
//	    Err()
//
// Each Add appends to the same ordered group that
// [Builder.RegisterCollection] feeds; the two styles can be mixed.
type CollectionBuilder struct {
	builder *Builder
	service string
	err     error
}

// Collection starts a fluent registration chain for the service's group.
func (b *Builder) Collection(service string) *CollectionBuilder {
	return &CollectionBuilder{builder: b, service: service}
}

// Add appends an implementation to the group. After the first failure the
// chain becomes a no-op; check [CollectionBuilder.Err] at the end.
func (cb *CollectionBuilder) Add(lifetime Lifetime, factory Factory, opts ...RegisterOption) *CollectionBuilder {
	if cb.err != nil {
		return cb
	}
	cb.err = cb.builder.RegisterCollection(cb.service, lifetime, factory, opts...)
	return cb
}

// Err returns the first error encountered by the chain, if any.
func (cb *CollectionBuilder) Err() error {
	return cb.err
}
