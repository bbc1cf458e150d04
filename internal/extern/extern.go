// Package extern implements the extern-loader registry: a name
// registered here stands in for a module whose global is produced by
// a host-provided loader rather than by compiling source, mapping a
// fixed name to a host-populated module value.
package extern

import "github.com/glu-lang/core/internal/vm"

// Module is what a Loader produces: a value together with the metadata
// the environment view's get_metadata exposes for it.
// A freshly returned Module must own its Value outright: the loader
// must not keep an alias to the Value it hands back, so the move into
// the global cache (internal/global) cannot race a still-live use in
// the loader's own scope.
type Module struct {
	ID       string
	Type     string
	Metadata map[string]string
	Value    vm.Value
}

// Loader produces an extern module's value. Dependencies names other
// modules (ordinary or extern) that must be imported and made
// available before Load runs; internal/global forces each of them via
// import() before calling Load.
type Loader interface {
	Dependencies() []string
	Load(deps map[string]vm.Value) (*Module, error)
}

// Registry maps a module name to the Loader responsible for it. Lookup
// failures are not errors: a name absent from the registry is simply
// an ordinary source module, resolved by compiling module_text
// instead.
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]Loader)}
}

// Register associates name with loader, replacing any prior loader for
// the same name.
func (r *Registry) Register(name string, loader Loader) {
	r.loaders[name] = loader
}

// Lookup returns the loader registered for name, if any.
func (r *Registry) Lookup(name string) (Loader, bool) {
	l, ok := r.loaders[name]
	return l, ok
}
