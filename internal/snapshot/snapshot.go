// Package snapshot defines the storage collaborator: stage snapshots of a
// record, addressed by ID and stage name, behind a name-keyed driver
// registry.
package snapshot

import (
	"context"
	"errors"
	"fmt"
)

// Record processing stages.
const (
	StageStaged      = "staged"
	StageTransformed = "transformed"
)

// ID addresses one versioned record instance.
type ID struct {
	EntityID string
	BundleID string
}

func (id ID) String() string {
	return id.EntityID + "/" + id.BundleID
}

// Metadata is recorded alongside a transformed snapshot write.
type Metadata struct {
	TransformedAt      string `json:"transformed_at"`
	TransformerVersion string `json:"transformer_version"`
	SourceStage        string `json:"source_stage"`
}

// ErrNotFound reports that no snapshot exists for (id, stage). Callers rely
// on it to distinguish "not yet transformed" from real storage errors.
var ErrNotFound = errors.New("snapshot not found")

// Store persists stage snapshots. Overwrite semantics are last-write-wins.
type Store interface {
	Get(ctx context.Context, id ID, stage string) (map[string]any, error)
	Put(ctx context.Context, id ID, stage string, meta Metadata, payload map[string]any) error
	Close() error
}

// Config carries driver settings. Drivers read the fields they need.
type Config struct {
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	PathStyle bool   `koanf:"path_style"`
	KeyPrefix string `koanf:"key_prefix"`
}

// Factory builds a Store (e.g. the S3 or memory driver).
type Factory func(ctx context.Context, cfg Config) (Store, error)

var registry = map[string]Factory{}

// Register is called from main for each compiled-in driver.
func Register(name string, f Factory) {
	registry[name] = f
}

// Open returns a configured store by driver name ("s3", "memory"…).
func Open(ctx context.Context, name string, cfg Config) (Store, error) {
	if f, ok := registry[name]; ok {
		return f(ctx, cfg)
	}
	return nil, fmt.Errorf("snapshot: unsupported store %q", name)
}
