package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/name-of-okja/egovframe-container/config"
	"github.com/name-of-okja/egovframe-container/container"
	"github.com/name-of-okja/egovframe-container/web"
)

// visitStore is a per-request (scoped) unit of work. Close runs when the
// request scope is disposed.
type visitStore struct {
	log    *log.Logger
	visits int
}

func (v *visitStore) Record() int {
	v.visits++
	return v.visits
}

func (v *visitStore) Close() error {
	v.log.Printf("store: request done after %d visit(s)", v.visits)
	return nil
}

// greeter is transient: a fresh one per resolution, sharing the request's
// store and the application-wide counter.
type greeter struct {
	store *visitStore
	total *atomic.Int64
}

func (g *greeter) Greet(name string) map[string]any {
	return map[string]any{
		"message": "Hello, " + name + "!",
		"visit":   g.store.Record(),
		"total":   g.total.Add(1),
	}
}

func main() {
	cfg := config.Load() // loads .env automatically

	b := container.New()

	must(b.RegisterInstance("config", cfg))

	must(b.Register("logger", container.Singleton, func(ctx context.Context, s *container.Scope) (any, error) {
		return log.New(os.Stdout, "[app] ", log.LstdFlags), nil
	}))

	must(b.Register("counter", container.Singleton, func(ctx context.Context, s *container.Scope) (any, error) {
		return &atomic.Int64{}, nil
	}))

	// One store per request scope, disposed when the request ends.
	must(b.Register("store", container.Scoped, func(ctx context.Context, s *container.Scope) (any, error) {
		logger, err := container.ResolveContext[*log.Logger](ctx, s, "logger")
		if err != nil {
			return nil, err
		}
		return &visitStore{log: logger}, nil
	}, container.DependsOn("logger")))

	must(b.Register("greeter", container.Transient, func(ctx context.Context, s *container.Scope) (any, error) {
		store, err := container.ResolveContext[*visitStore](ctx, s, "store")
		if err != nil {
			return nil, err
		}
		total, err := container.ResolveContext[*atomic.Int64](ctx, s, "counter")
		if err != nil {
			return nil, err
		}
		return &greeter{store: store, total: total}, nil
	}, container.DependsOn("store", "counter")))

	c, err := b.Build()
	if err != nil {
		log.Fatalf("build container: %v", err)
	}
	for _, w := range c.Warnings() {
		log.Printf("warning: %s", w)
	}
	defer c.Close(context.Background())

	r := web.NewRouter(c)

	r.Get("/hello/{name}", func(w http.ResponseWriter, req *http.Request) {
		s := web.ScopeFrom(req.Context())
		g, err := container.ResolveContext[*greeter](req.Context(), s, "greeter")
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, g.Greet(chi.URLParam(req, "name")))
	})

	addr := ":" + cfg.Get("APP_PORT", "8000")
	fmt.Printf("🚀  %s running on http://localhost%s\n", cfg.Get("APP_NAME", "egovframe-container"), addr)

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func must(err error) {
	if err != nil {
		log.Fatalf("register: %v", err)
	}
}
