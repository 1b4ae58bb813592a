package container

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateRegistration is returned when a key is registered twice and
	// the builder was not created with [AllowOverride].
	ErrDuplicateRegistration = errors.New("service already registered")

	// ErrNotFound is returned when no registration exists for the requested
	// key.
	ErrNotFound = errors.New("service not registered")

	// ErrAlreadyBuilt is returned when a registration method or Build is
	// called after the builder has been built.
	ErrAlreadyBuilt = errors.New("container already built")

	// ErrUnresolvableGraph is returned by Build when the declared dependency
	// graph cannot be satisfied: a dangling alias, a missing declared
	// dependency, or a statically declared cycle.
	ErrUnresolvableGraph = errors.New("unresolvable dependency graph")

	// ErrCyclicDependency matches any [CycleError] via errors.Is.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrScopeDisposed is returned when resolving against a closed scope.
	ErrScopeDisposed = errors.New("scope disposed")
)

// CycleError reports a dependency cycle found at resolution time. Chain
// holds the keys in resolution order, ending with the repeated key, e.g.
// [a, b, a].
type CycleError struct {
	Chain []Key
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Chain))
	for i, k := range e.Chain {
		parts[i] = k.String()
	}
	return "cyclic dependency detected: " + strings.Join(parts, " -> ")
}

// Is reports whether target is [ErrCyclicDependency].
func (e *CycleError) Is(target error) bool {
	return target == ErrCyclicDependency
}

// DisposalError aggregates the failures from closing a scope. Every tracked
// disposable is attempted before the error is returned; no failure masks
// another.
type DisposalError struct {
	Errors []error
}

func (e *DisposalError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("disposing scope: %d failure(s): %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap returns the individual disposal failures, so errors.Is and
// errors.As see through the aggregate.
func (e *DisposalError) Unwrap() []error {
	return e.Errors
}

// CaptiveDependencyWarning flags a registration whose declared dependency is
// shorter-lived than itself — typically a singleton depending on a scoped
// service, which would pin the first scope's instance for the container's
// whole lifetime. Warnings are collected by Build, not returned as errors.
type CaptiveDependencyWarning struct {
	Key                Key
	KeyLifetime        Lifetime
	Dependency         Key
	DependencyLifetime Lifetime
}

func (w CaptiveDependencyWarning) String() string {
	return fmt.Sprintf("captive dependency: %s %s depends on %s %s",
		w.KeyLifetime, w.Key, w.DependencyLifetime, w.Dependency)
}
