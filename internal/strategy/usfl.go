package strategy

import (
	"fmt"
	"strings"
	"time"
)

// Strategies specific to the us_fl source registry.

type parseDateConfig struct{}

// parseDate converts the registry's 8-digit MMDDYYYY dates to YYYY-MM-DD.
// Anything that is not a parseable 8-digit date yields nil, never an error.
type parseDate struct{}

func (parseDate) Transform(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	s := fmt.Sprint(value)
	if len(s) != 8 {
		return nil, nil
	}
	t, err := time.Parse("01022006", s)
	if err != nil {
		return nil, nil
	}
	return t.Format("2006-01-02"), nil
}

type parseDateFactory struct{}

func (parseDateFactory) Validate(map[string]any) (any, error) {
	return parseDateConfig{}, nil
}

func (parseDateFactory) Create(any, Env) (Strategy, error) {
	return parseDate{}, nil
}

type branchStatusConfig struct{}

// branchStatus classifies a filing-type code as branch ("true"),
// non-branch ("false"), or unknown (nil). Unrecognized codes map to nil,
// not a default.
type branchStatus struct{}

func (branchStatus) Transform(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch strings.TrimSpace(fmt.Sprint(value)) {
	case "FOR", "FLL":
		return "true", nil
	case "DOM":
		return "false", nil
	default:
		return nil, nil
	}
}

type branchStatusFactory struct{}

func (branchStatusFactory) Validate(map[string]any) (any, error) {
	return branchStatusConfig{}, nil
}

func (branchStatusFactory) Create(any, Env) (Strategy, error) {
	return branchStatus{}, nil
}

// The build_* strategies assemble structured sub-objects (addresses, the
// officers array, identifiers) whose field-assembly rules are owned by the
// deployment. They register as named extension points and contribute nothing
// until a deployment supplies the rules.
type buildStub struct{}

func (buildStub) Transform(any) (any, error) {
	return nil, nil
}

type buildStubFactory struct{}

func (buildStubFactory) Validate(map[string]any) (any, error) {
	return struct{}{}, nil
}

func (buildStubFactory) Create(any, Env) (Strategy, error) {
	return buildStub{}, nil
}

func registerUSFL(r *Registry) {
	mustRegister(r, Transformation, "us_fl.parse_date", parseDateFactory{})
	mustRegister(r, Transformation, "us_fl.determine_branch_status", branchStatusFactory{})
	for _, name := range []string{
		"us_fl.build_headquarters_address",
		"us_fl.build_mailing_address",
		"us_fl.build_officers_array",
		"us_fl.build_all_attributes",
		"us_fl.build_identifiers",
	} {
		mustRegister(r, Transformation, name, buildStubFactory{})
	}
}
