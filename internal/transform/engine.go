// Package transform applies the target-field schema to staged records and
// orchestrates the fetch → transform → store flow for change notifications.
package transform

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"transformd/internal/logging"
	"transformd/internal/schema"
	"transformd/internal/snapshot"
	"transformd/internal/strategy"
)

// Result is the outcome of transforming one record. Exactly one of
// Transformed-present, Skipped, or Success=false holds.
type Result struct {
	Success     bool
	Transformed map[string]any
	ErrMessage  string
	Skipped     bool
	SkipReason  string
}

// Engine owns the target schema and the loaded mapping tables. It holds no
// mutable cross-record state, so one instance serves the whole process.
type Engine struct {
	schema *schema.File
	reg    *strategy.Registry
	tables map[string]map[string]any
}

// NewEngine eagerly loads every mapping file the schema declares from
// <schemaDir>/enums. A missing or malformed file logs a warning and leaves
// that table absent; lookups bound to it pass values through unchanged.
func NewEngine(sch *schema.File, reg *strategy.Registry, schemaDir string) *Engine {
	e := &Engine{schema: sch, reg: reg, tables: map[string]map[string]any{}}
	e.loadMappingFiles(schemaDir)
	return e
}

func (e *Engine) loadMappingFiles(schemaDir string) {
	if schemaDir == "" {
		logging.L().Warn("no schema directory set, skipping mapping file loading")
		return
	}
	for name, filename := range e.schema.MappingFiles {
		p := filepath.Join(schemaDir, "enums", filename)
		raw, err := os.ReadFile(p)
		if err != nil {
			logging.L().Warn("mapping file not found", "mapping", name, "file", filename)
			continue
		}
		var table map[string]any
		if err := json.Unmarshal(raw, &table); err != nil {
			logging.L().Error("invalid JSON in mapping file", "mapping", name, "file", filename, "error", err)
			continue
		}
		e.tables[name] = table
		logging.L().Info("loaded mapping file", "mapping", name, "file", filename, "entries", len(table))
	}
}

// TableCount reports how many mapping tables loaded successfully.
func (e *Engine) TableCount() int {
	return len(e.tables)
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return strings.TrimSpace(t) == ""
	case int:
		return t == 0
	case float64:
		return t == 0
	default:
		return strings.TrimSpace(fmt.Sprint(t)) == ""
	}
}

func (e *Engine) shouldSkip(data map[string]any) (bool, string, error) {
	for _, c := range e.schema.Validation.SkipConditions {
		if c.Field == "" || c.Operator == "" {
			continue
		}
		switch c.Operator {
		case "blank":
			if isBlank(data[c.Field]) {
				return true, fmt.Sprintf("Field %s is blank", c.Field), nil
			}
		default:
			return false, "", fmt.Errorf("unknown skip operator %q for field %s", c.Operator, c.Field)
		}
	}
	return false, "", nil
}

func (e *Engine) applyField(f schema.FieldSpec, data map[string]any) (any, error) {
	var input any
	if src := f.InputSource(); src != "" {
		input = data[src]
	}
	st, err := e.reg.Create(strategy.Transformation, f.Logic(), f.Raw, strategy.Env{Tables: e.tables})
	if err != nil {
		return nil, err
	}
	return st.Transform(input)
}

// TransformRecord applies the full field schema to one staged record.
// Per-field failures are contained: the field is omitted, the record still
// succeeds. Only a failure in the record-level logic itself (an invalid
// skip condition) yields Success=false.
func (e *Engine) TransformRecord(id snapshot.ID, staged map[string]any) Result {
	skip, reason, err := e.shouldSkip(staged)
	if err != nil {
		logging.L().Error("record transformation failed",
			"entity_id", id.EntityID, "bundle_id", id.BundleID, "error", err)
		return Result{ErrMessage: err.Error()}
	}
	if skip {
		return Result{Success: true, Skipped: true, SkipReason: reason}
	}

	out := make(map[string]any, len(e.schema.Company))
	for _, f := range e.schema.Company {
		if f.Logic() == "" {
			// declared way to omit a target field via schema authoring
			continue
		}
		v, err := e.applyField(f, staged)
		if err != nil {
			logging.L().Warn("failed to transform field",
				"field", f.Name, "strategy", f.Logic(),
				"entity_id", id.EntityID, "bundle_id", id.BundleID, "error", err)
			continue
		}
		if v != nil {
			out[f.Name] = v
		}
	}
	return Result{Success: true, Transformed: out}
}
