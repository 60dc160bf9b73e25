package scraper

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Factory builds a fresh adapter instance. Adapters acquire their HTTP
// session when a scrape starts and release it when the scrape ends, so a
// factory call is cheap.
type Factory func(logger *zap.Logger) Scraper

// Registry maps the closed Source set to adapter factories. Lookups for
// sources without a registered adapter fail before any run is scheduled.
type Registry struct {
	factories map[Source]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[Source]Factory)}
}

func (r *Registry) Register(src Source, f Factory) error {
	if !src.Known() {
		return fmt.Errorf("refusing to register unknown source %q", src)
	}
	if _, dup := r.factories[src]; dup {
		return fmt.Errorf("source %q already registered", src)
	}
	r.factories[src] = f
	return nil
}

// Get returns the factory for src, or an error when src is unknown or has no
// adapter registered.
func (r *Registry) Get(src Source) (Factory, error) {
	if !src.Known() {
		return nil, fmt.Errorf("unknown source %q", src)
	}
	f, ok := r.factories[src]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for source %q", src)
	}
	return f, nil
}

// Sources returns the registered sources in stable order.
func (r *Registry) Sources() []Source {
	out := make([]Source, 0, len(r.factories))
	for src := range r.factories {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
