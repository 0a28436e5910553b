package schema

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSchema(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "schema.yml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return p
}

func TestLoad_PreservesFieldOrder(t *testing.T) {
	p := writeSchema(t, `schema_version: v1
company:
  company_number:
    input_source: COR_NUMBER
    transformation_logic: oc.direct_mapping
  name:
    input_source: COR_NAME
    transformation_logic: oc.direct_mapping
  jurisdiction_code:
    transformation_logic: oc.fixed_value
    fixed_value: us_fl
`)
	f, dir, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !filepath.IsAbs(dir) {
		t.Fatalf("want absolute schema dir, got %q", dir)
	}
	want := []string{"company_number", "name", "jurisdiction_code"}
	if len(f.Company) != len(want) {
		t.Fatalf("want %d fields, got %d", len(want), len(f.Company))
	}
	for i, name := range want {
		if f.Company[i].Name != name {
			t.Fatalf("field %d: want %s, got %s", i, name, f.Company[i].Name)
		}
	}
	if got := f.Company[2].Raw["fixed_value"]; got != "us_fl" {
		t.Fatalf("want raw fixed_value us_fl, got %v", got)
	}
	if f.Company[0].InputSource() != "COR_NUMBER" {
		t.Fatalf("unexpected input_source %q", f.Company[0].InputSource())
	}
	if f.Company[2].InputSource() != "" {
		t.Fatalf("want empty input_source, got %q", f.Company[2].InputSource())
	}
}

func TestLoad_SkipConditionsAndMappingFiles(t *testing.T) {
	p := writeSchema(t, `schema_version: v1
mapping_files:
  company_status: company_status.json
validation_rules:
  skip_conditions:
    - field: COR_NUMBER
      operator: blank
company:
  company_number:
    input_source: COR_NUMBER
    transformation_logic: oc.direct_mapping
`)
	f, _, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.MappingFiles["company_status"] != "company_status.json" {
		t.Fatalf("mapping_files not parsed: %v", f.MappingFiles)
	}
	sc := f.Validation.SkipConditions
	if len(sc) != 1 || sc[0].Field != "COR_NUMBER" || sc[0].Operator != "blank" {
		t.Fatalf("skip_conditions not parsed: %+v", sc)
	}
}

func TestLoad_InvalidSchemaVersion(t *testing.T) {
	p := writeSchema(t, `schema_version: v999
company: {}
`)
	if _, _, err := Load(p); err == nil {
		t.Fatal("expected error for invalid schema_version")
	}
}

func TestLoad_DefaultsSchemaVersion(t *testing.T) {
	p := writeSchema(t, `company: {}
`)
	f, _, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.SchemaVersion != SupportedSchema {
		t.Fatalf("want default schema %s, got %s", SupportedSchema, f.SchemaVersion)
	}
}

func TestLoad_CompanyMustBeMapping(t *testing.T) {
	p := writeSchema(t, `schema_version: v1
company:
  - not
  - a
  - mapping
`)
	if _, _, err := Load(p); err == nil {
		t.Fatal("expected error for sequence company block")
	}
}
