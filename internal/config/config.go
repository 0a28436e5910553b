// Package config centralizes service configuration loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"transformd/internal/snapshot"
)

const SupportedSchema = "v1"

type SourceCfg struct {
	Driver string `koanf:"driver"`
	Config string `koanf:"config"` // path to the kafka source YAML, relative to this file
}

type StorageCfg struct {
	Backend string          `koanf:"backend"` // s3|memory
	S3      snapshot.Config `koanf:"s3"`
}

type LogCfg struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

type Config struct {
	SchemaVersion string     `koanf:"schema_version"`
	SchemaPath    string     `koanf:"schema_path"` // target-field schema, relative to this file
	HealthPort    int        `koanf:"health_port"`
	Source        SourceCfg  `koanf:"source"`
	Storage       StorageCfg `koanf:"storage"`
	Log           LogCfg     `koanf:"log"`
}

// Load merges the service YAML with env-vars (prefix `TRANSFORMD__`,
// delimiter `__`), validates schema_version, and resolves relative paths
// against the config file's directory.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
		!errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	_ = k.Load(env.Provider("TRANSFORMD__", "__", nil), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SupportedSchema
	}
	if cfg.SchemaVersion != SupportedSchema {
		return cfg, fmt.Errorf("service schema_version %q not supported (want %q)", cfg.SchemaVersion, SupportedSchema)
	}
	if cfg.SchemaPath == "" {
		return cfg, errors.New("schema_path is required")
	}

	dir := filepath.Dir(path)
	if !filepath.IsAbs(cfg.SchemaPath) {
		cfg.SchemaPath = filepath.Join(dir, cfg.SchemaPath)
	}
	if cfg.Source.Config != "" && !filepath.IsAbs(cfg.Source.Config) {
		cfg.Source.Config = filepath.Join(dir, cfg.Source.Config)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(c *Config) {
	if c.HealthPort == 0 {
		c.HealthPort = 9102
	}
	if c.Source.Driver == "" {
		c.Source.Driver = "sarama"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "s3"
	}
}
