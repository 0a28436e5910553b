package engine

import (
	"context"
	"fmt"

	"transformd/internal/config"
	"transformd/internal/health"
	"transformd/internal/logging"
	"transformd/internal/snapshot"
	"transformd/internal/strategy"
	"transformd/internal/transform"
	"transformd/source/kafka"
)

type Config struct {
	ConfigPath string
}

func Bootstrap(ctx context.Context, cfg Config) (*Engine, error) {
	svc, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if svc.Log.Level != "" || svc.Log.JSON {
		logging.Configure(logging.Options{Level: svc.Log.Level, JSON: svc.Log.JSON})
	}

	store, err := snapshot.Open(ctx, svc.Storage.Backend, svc.Storage.S3)
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}

	handler := transform.NewHandler(store, strategy.Default(), svc.SchemaPath)
	if err := handler.Initialize(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("handler: %w", err)
	}

	kc, err := config.LoadKafkaConfig(svc.Source.Config)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("kafka config: %w", err)
	}
	src, err := kafka.NewAdapter(svc.Source.Driver)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := src.Configure(kc); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("kafka: %w", err)
	}

	checker := health.NewChecker("transformd")
	checker.AddCheck("handler", func() error {
		if !handler.Ready() {
			return fmt.Errorf("not initialized")
		}
		return nil
	})
	healthSrv := health.Serve(svc.HealthPort, checker)

	return &Engine{
		source:  src,
		handler: handler,
		store:   store,
		health:  healthSrv,
	}, nil
}
