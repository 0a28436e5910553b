// Package strategy maps string transformation identifiers from the target
// schema to typed, validated transformation behaviors.
package strategy

import (
	"errors"
	"fmt"
)

// Kind separates strategy namespaces that share the registry.
type Kind string

// Transformation is the capability kind for per-field transformations.
const Transformation Kind = "transformation"

// Strategy applies one field transformation. A nil output means the field is
// omitted from the transformed record.
type Strategy interface {
	Transform(value any) (any, error)
}

// Env carries side inputs a strategy may need at create time, without
// coupling the registry to specific strategy shapes.
type Env struct {
	// Tables holds the loaded mapping tables, keyed by logical name.
	Tables map[string]map[string]any
}

// Factory validates a raw field-spec fragment and builds a strategy from the
// validated configuration. Validate failures are configuration errors and
// surface before any record is transformed with that field.
type Factory interface {
	Validate(raw map[string]any) (any, error)
	Create(cfg any, env Env) (Strategy, error)
}

var (
	ErrUnknownStrategy   = errors.New("unknown strategy")
	ErrDuplicateStrategy = errors.New("strategy already registered")
)

type registryKey struct {
	kind Kind
	name string
}

// Registry is an explicitly constructed lookup table, injected into the
// engine at construction time. It is populated at startup and read-only
// afterwards.
type Registry struct {
	factories map[registryKey]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[registryKey]Factory{}}
}

// Register associates (kind, name) with a factory. Re-registering the same
// pair is a configuration error.
func (r *Registry) Register(kind Kind, name string, f Factory) error {
	k := registryKey{kind, name}
	if _, exists := r.factories[k]; exists {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateStrategy, kind, name)
	}
	r.factories[k] = f
	return nil
}

// Create looks up the factory for (kind, name), validates the raw config and
// builds a ready strategy instance.
func (r *Registry) Create(kind Kind, name string, raw map[string]any, env Env) (Strategy, error) {
	f, ok := r.factories[registryKey{kind, name}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownStrategy, kind, name)
	}
	cfg, err := f.Validate(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return f.Create(cfg, env)
}

func mustRegister(r *Registry, kind Kind, name string, f Factory) {
	if err := r.Register(kind, name, f); err != nil {
		panic(err)
	}
}

// Default returns a registry populated with the built-in universal and
// us_fl namespaces.
func Default() *Registry {
	r := NewRegistry()
	registerCore(r)
	registerUSFL(r)
	return r
}
