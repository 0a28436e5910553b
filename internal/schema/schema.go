// Package schema loads the target-field schema that drives record
// transformation: the ordered company field map, the mapping-file
// declarations, and the record-level skip conditions.
package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const SupportedSchema = "v1"

// SkipCondition bypasses a whole record before any field is transformed.
type SkipCondition struct {
	Field    string `yaml:"field"`
	Operator string `yaml:"operator"`
}

type ValidationRules struct {
	SkipConditions []SkipCondition `yaml:"skip_conditions"`
}

// FieldSpec is one target field declaration. Raw keeps the full fragment so
// strategy factories can validate their own keys (fixed_value, mapping_file…).
type FieldSpec struct {
	Name string
	Raw  map[string]any
}

func (f FieldSpec) InputSource() string {
	s, _ := f.Raw["input_source"].(string)
	return s
}

func (f FieldSpec) Logic() string {
	s, _ := f.Raw["transformation_logic"].(string)
	return s
}

// FieldList preserves YAML declaration order. Output does not depend on the
// order, but iteration has to be deterministic.
type FieldList []FieldSpec

func (l *FieldList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("company schema: expected a mapping, got %s", node.Tag)
	}
	out := make(FieldList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return err
		}
		raw := map[string]any{}
		if err := node.Content[i+1].Decode(&raw); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		out = append(out, FieldSpec{Name: name, Raw: raw})
	}
	*l = out
	return nil
}

type File struct {
	SchemaVersion string            `yaml:"schema_version"`
	Company       FieldList         `yaml:"company"`
	MappingFiles  map[string]string `yaml:"mapping_files"`
	Validation    ValidationRules   `yaml:"validation_rules"`
}

// Load parses a target schema YAML, validates schema_version, and returns the
// parsed schema plus the absolute path of its directory (mapping files are
// resolved relative to it).
func Load(path string) (File, string, error) {
	var f File
	raw, err := os.ReadFile(path)
	if err != nil {
		return f, "", err
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return f, "", err
	}
	if f.SchemaVersion == "" {
		f.SchemaVersion = SupportedSchema
	}
	if f.SchemaVersion != SupportedSchema {
		return f, "", fmt.Errorf("target schema_version %q not supported (want %q)", f.SchemaVersion, SupportedSchema)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return f, "", err
	}
	return f, dir, nil
}
