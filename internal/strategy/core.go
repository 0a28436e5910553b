package strategy

import (
	"errors"
	"fmt"
	"strings"
)

// Universal strategies, usable by any registry deployment.

type directMappingConfig struct{}

type directMapping struct{}

func (directMapping) Transform(value any) (any, error) {
	return value, nil
}

type directMappingFactory struct{}

func (directMappingFactory) Validate(map[string]any) (any, error) {
	return directMappingConfig{}, nil
}

func (directMappingFactory) Create(any, Env) (Strategy, error) {
	return directMapping{}, nil
}

type fixedValueConfig struct {
	Value string
}

type fixedValue struct {
	value string
}

func (s fixedValue) Transform(any) (any, error) {
	return s.value, nil
}

type fixedValueFactory struct{}

func (fixedValueFactory) Validate(raw map[string]any) (any, error) {
	v, ok := raw["fixed_value"].(string)
	if !ok {
		return nil, errors.New("fixed_value is required")
	}
	return fixedValueConfig{Value: v}, nil
}

func (fixedValueFactory) Create(cfg any, _ Env) (Strategy, error) {
	c, ok := cfg.(fixedValueConfig)
	if !ok {
		return nil, fmt.Errorf("fixed_value: unexpected config type %T", cfg)
	}
	return fixedValue{value: c.Value}, nil
}

type lookupMappingConfig struct {
	MappingFile string
}

// lookupMapping maps a raw source code to its canonical label. A table that
// failed to load leaves the strategy with an empty map, so every lookup
// misses and the raw value passes through unchanged.
type lookupMapping struct {
	table map[string]any
}

func (s lookupMapping) Transform(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	key := strings.TrimSpace(fmt.Sprint(value))
	if key == "" {
		return nil, nil
	}
	if mapped, ok := s.table[key]; ok {
		return mapped, nil
	}
	return value, nil
}

type lookupMappingFactory struct{}

func (lookupMappingFactory) Validate(raw map[string]any) (any, error) {
	f, ok := raw["mapping_file"].(string)
	if !ok {
		return nil, errors.New("mapping_file is required")
	}
	return lookupMappingConfig{MappingFile: f}, nil
}

func (lookupMappingFactory) Create(cfg any, env Env) (Strategy, error) {
	c, ok := cfg.(lookupMappingConfig)
	if !ok {
		return nil, fmt.Errorf("lookup_mapping_file: unexpected config type %T", cfg)
	}
	return lookupMapping{table: env.Tables[c.MappingFile]}, nil
}

func registerCore(r *Registry) {
	mustRegister(r, Transformation, "oc.direct_mapping", directMappingFactory{})
	mustRegister(r, Transformation, "oc.fixed_value", fixedValueFactory{})
	mustRegister(r, Transformation, "oc.lookup_mapping_file", lookupMappingFactory{})
}
