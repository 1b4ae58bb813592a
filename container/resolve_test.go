package container_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/name-of-okja/egovframe-container/container"
)

// ── helpers ──────────────────────────────────────────────────────────────────

// value returns a factory producing the same pre-built value.
func value(v any) container.Factory {
	return func(context.Context, *container.Scope) (any, error) { return v, nil }
}

// fresh returns a factory producing a new pointer each call.
func fresh() container.Factory {
	return func(context.Context, *container.Scope) (any, error) { return new(int), nil }
}

func build(t *testing.T, b *container.Builder) *container.Container {
	t.Helper()
	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return c
}

// ── Lifetimes ────────────────────────────────────────────────────────────────

func TestResolve_Singleton_SameInstance(t *testing.T) {
	b := container.New()
	if err := b.Register("svc", container.Singleton, fresh()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	c := build(t, b)

	first, err := c.Resolve("svc")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, _ := c.Resolve("svc")
	if first != second {
		t.Error("singleton resolved to two distinct instances")
	}

	// Also identical when resolved from a child scope
	s := c.NewScope()
	defer s.Close()
	third, _ := s.Resolve("svc")
	if first != third {
		t.Error("singleton from child scope differs from root instance")
	}
}

func TestResolve_Singleton_LazyUntilFirstResolve(t *testing.T) {
	var calls atomic.Int32
	b := container.New()
	b.Register("svc", container.Singleton, func(context.Context, *container.Scope) (any, error) {
		calls.Add(1)
		return new(int), nil
	})
	c := build(t, b)

	if got := calls.Load(); got != 0 {
		t.Fatalf("factory ran %d time(s) before first resolve, want 0", got)
	}
	c.Resolve("svc")
	if got := calls.Load(); got != 1 {
		t.Errorf("factory ran %d time(s), want 1", got)
	}
}

func TestResolve_ConcurrentSingleton_OneFactoryCall(t *testing.T) {
	var calls atomic.Int32
	b := container.New()
	b.Register("svc", container.Singleton, func(context.Context, *container.Scope) (any, error) {
		calls.Add(1)
		return new(int), nil
	})
	c := build(t, b)

	const n = 50
	results := make([]any, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			v, err := c.Resolve("svc")
			if err != nil {
				t.Errorf("Resolve: %v", err)
				return
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("factory ran %d time(s) under concurrency, want exactly 1", got)
	}
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("call %d returned a different instance", i)
		}
	}
}

func TestResolve_Scoped_IsolatedPerScope(t *testing.T) {
	b := container.New()
	b.Register("svc", container.Scoped, fresh())
	c := build(t, b)

	s1 := c.NewScope()
	defer s1.Close()
	s2 := c.NewScope()
	defer s2.Close()

	a1, _ := s1.Resolve("svc")
	a2, _ := s1.Resolve("svc")
	if a1 != a2 {
		t.Error("same scope returned two distinct scoped instances")
	}

	other, _ := s2.Resolve("svc")
	if other == a1 {
		t.Error("two scopes shared one scoped instance")
	}
}

func TestResolve_Transient_AlwaysFresh(t *testing.T) {
	b := container.New()
	b.Register("svc", container.Transient, fresh())
	c := build(t, b)

	s := c.NewScope()
	defer s.Close()

	first, _ := s.Resolve("svc")
	second, _ := s.Resolve("svc")
	if first == second {
		t.Error("transient returned the same instance twice")
	}
}

// ── Mixed-lifetime graph ─────────────────────────────────────────────────────

type testLogger struct{}

type testRepo struct {
	log    *testLogger
	closed atomic.Int32
}

func (r *testRepo) Close() error {
	r.closed.Add(1)
	return nil
}

type testService struct {
	log  *testLogger
	repo *testRepo
}

// Transient service depending on a singleton logger and a scoped repo:
// two services in one scope share both; a second scope gets its own repo.
func TestResolve_TransientSeesScopedState(t *testing.T) {
	b := container.New()
	b.Register("logger", container.Singleton, value(&testLogger{}))
	b.Register("repo", container.Scoped, func(ctx context.Context, s *container.Scope) (any, error) {
		log, err := container.ResolveContext[*testLogger](ctx, s, "logger")
		if err != nil {
			return nil, err
		}
		return &testRepo{log: log}, nil
	}, container.DependsOn("logger"))
	b.Register("service", container.Transient, func(ctx context.Context, s *container.Scope) (any, error) {
		log, err := container.ResolveContext[*testLogger](ctx, s, "logger")
		if err != nil {
			return nil, err
		}
		repo, err := container.ResolveContext[*testRepo](ctx, s, "repo")
		if err != nil {
			return nil, err
		}
		return &testService{log: log, repo: repo}, nil
	}, container.DependsOn("logger", "repo"))
	c := build(t, b)

	s1 := c.NewScope()
	svc1 := container.MustResolve[*testService](s1, "service")
	svc2 := container.MustResolve[*testService](s1, "service")

	if svc1 == svc2 {
		t.Error("two transient resolutions returned the same service")
	}
	if svc1.log != svc2.log {
		t.Error("services in one scope saw different singleton loggers")
	}
	if svc1.repo != svc2.repo {
		t.Error("services in one scope saw different scoped repos")
	}

	s2 := c.NewScope()
	defer s2.Close()
	repo2 := container.MustResolve[*testRepo](s2, "repo")
	if repo2 == svc1.repo {
		t.Error("second scope shared the first scope's repo")
	}

	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := svc1.repo.closed.Load(); got != 1 {
		t.Errorf("repo closed %d time(s), want exactly 1", got)
	}
}

// ── Cycles ───────────────────────────────────────────────────────────────────

func TestResolve_Cycle_NamesFullChain(t *testing.T) {
	b := container.New()
	b.Register("a", container.Transient, func(ctx context.Context, s *container.Scope) (any, error) {
		return s.ResolveContext(ctx, "b")
	})
	b.Register("b", container.Transient, func(ctx context.Context, s *container.Scope) (any, error) {
		return s.ResolveContext(ctx, "a")
	})
	c := build(t, b)

	_, err := c.Resolve("a")
	if !errors.Is(err, container.ErrCyclicDependency) {
		t.Fatalf("got %v, want ErrCyclicDependency", err)
	}

	var cycle *container.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("error %v does not wrap *CycleError", err)
	}
	want := []container.Key{{Service: "a"}, {Service: "b"}, {Service: "a"}}
	if len(cycle.Chain) != len(want) {
		t.Fatalf("chain %v, want %v", cycle.Chain, want)
	}
	for i := range want {
		if cycle.Chain[i] != want[i] {
			t.Fatalf("chain %v, want %v", cycle.Chain, want)
		}
	}
}

func TestResolve_SelfCycle(t *testing.T) {
	b := container.New()
	b.Register("a", container.Singleton, func(ctx context.Context, s *container.Scope) (any, error) {
		return s.ResolveContext(ctx, "a")
	})
	c := build(t, b)

	_, err := c.Resolve("a")
	if !errors.Is(err, container.ErrCyclicDependency) {
		t.Fatalf("got %v, want ErrCyclicDependency", err)
	}
}

// ── Lookup failures and optional resolution ──────────────────────────────────

func TestResolve_NotFound_NamesKey(t *testing.T) {
	c := build(t, container.New())

	_, err := c.Resolve("missing")
	if !errors.Is(err, container.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if got := err.Error(); got != "service not registered: missing" {
		t.Errorf("error %q does not name the key", got)
	}
}

func TestTryResolve(t *testing.T) {
	b := container.New()
	b.Register("present", container.Singleton, value("here"))
	b.Register("broken", container.Singleton, func(context.Context, *container.Scope) (any, error) {
		return nil, errors.New("boom")
	})
	c := build(t, b)
	s := c.Root()

	v, ok, err := s.TryResolve("present")
	if err != nil || !ok || v != "here" {
		t.Errorf("present: got (%v, %v, %v), want (here, true, nil)", v, ok, err)
	}

	v, ok, err = s.TryResolve("absent")
	if err != nil || ok || v != nil {
		t.Errorf("absent: got (%v, %v, %v), want (nil, false, nil)", v, ok, err)
	}

	_, _, err = s.TryResolve("broken")
	if err == nil {
		t.Error("broken: factory failure should surface an error")
	}
}

// ── Keyed resolution ─────────────────────────────────────────────────────────

func TestResolveKeyed(t *testing.T) {
	b := container.New()
	b.Register("cache", container.Singleton, value("redis"), container.WithName("redis"))
	b.Register("cache", container.Singleton, value("memory"), container.WithName("memory"))
	c := build(t, b)

	got, err := c.Root().ResolveKeyed("cache", "redis")
	if err != nil {
		t.Fatalf("ResolveKeyed: %v", err)
	}
	if got != "redis" {
		t.Errorf("got %v, want redis", got)
	}

	_, err = c.Root().ResolveKeyed("cache", "disk")
	if !errors.Is(err, container.ErrNotFound) {
		t.Errorf("unknown discriminator: got %v, want ErrNotFound", err)
	}
}

// ── Collection resolution ────────────────────────────────────────────────────

func TestResolveAll_RegistrationOrder(t *testing.T) {
	b := container.New()
	for i := 0; i < 3; i++ {
		b.RegisterCollection("report", container.Singleton, value(fmt.Sprintf("report-%d", i)))
	}
	c := build(t, b)

	got, err := container.ResolveAll[string](c.Root(), "report")
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	want := []string{"report-0", "report-1", "report-2"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResolveAll_NoRegistrations_EmptyNotError(t *testing.T) {
	c := build(t, container.New())

	got, err := c.Root().ResolveAll("report")
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d elements, want 0", len(got))
	}
}

func TestResolveAll_ScopedElements_CachedPerScope(t *testing.T) {
	b := container.New()
	b.Collection("handler").
		Add(container.Scoped, fresh()).
		Add(container.Scoped, fresh())
	c := build(t, b)

	s := c.NewScope()
	defer s.Close()

	first, _ := s.ResolveAll("handler")
	second, _ := s.ResolveAll("handler")
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("element %d rebuilt within one scope", i)
		}
	}
}

// ── Factories, decorators, aliases ───────────────────────────────────────────

func TestResolve_FactoryErrorNotCached(t *testing.T) {
	var calls atomic.Int32
	b := container.New()
	b.Register("svc", container.Singleton, func(context.Context, *container.Scope) (any, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("transient outage")
		}
		return "recovered", nil
	})
	c := build(t, b)

	if _, err := c.Resolve("svc"); err == nil {
		t.Fatal("first resolve should fail")
	}
	v, err := c.Resolve("svc")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if v != "recovered" {
		t.Errorf("got %v, want recovered", v)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("factory ran %d time(s), want 2 — the failure must not be cached", got)
	}
}

func TestResolve_ContextCancelled_BetweenNodes(t *testing.T) {
	var ran bool
	b := container.New()
	b.Register("svc", container.Singleton, func(context.Context, *container.Scope) (any, error) {
		ran = true
		return new(int), nil
	})
	c := build(t, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Root().ResolveContext(ctx, "svc")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if ran {
		t.Error("factory ran despite cancelled context")
	}
}

func TestResolve_DecoratorsRunInOrder(t *testing.T) {
	b := container.New()
	b.Register("greeting", container.Singleton, value("hello"))
	b.Decorate("greeting", func(v any, _ *container.Scope) any { return v.(string) + ", world" })
	b.Decorate("greeting", func(v any, _ *container.Scope) any { return v.(string) + "!" })
	c := build(t, b)

	got, err := container.Resolve[string](c.Root(), "greeting")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "hello, world!" {
		t.Errorf("got %q, want %q", got, "hello, world!")
	}
}

func TestResolve_Alias_SharesCacheSlot(t *testing.T) {
	b := container.New()
	b.Register("cache", container.Singleton, fresh())
	if err := b.Alias("store", "cache"); err != nil {
		t.Fatalf("Alias: %v", err)
	}
	c := build(t, b)

	direct, _ := c.Resolve("cache")
	aliased, _ := c.Resolve("store")
	if direct != aliased {
		t.Error("alias resolved to a different instance than its target")
	}
}

// ── Generic helpers ──────────────────────────────────────────────────────────

func TestResolveGeneric_TypeMismatch(t *testing.T) {
	b := container.New()
	b.Register("svc", container.Singleton, value("a string"))
	c := build(t, b)

	if _, err := container.Resolve[int](c.Root(), "svc"); err == nil {
		t.Error("resolving a string as int should fail")
	}
}

func TestMustResolve_PanicsOnMissing(t *testing.T) {
	c := build(t, container.New())

	defer func() {
		if recover() == nil {
			t.Error("MustResolve should panic for an unregistered service")
		}
	}()
	container.MustResolve[string](c.Root(), "missing")
}
