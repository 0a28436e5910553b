package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"transformd/internal/engine"
	"transformd/internal/logging"
	"transformd/internal/snapshot"
	"transformd/source/kafka"
)

func main() {
	logging.InitFromEnv()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "transformd.yml", "service configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kafka.Register("sarama", func() kafka.Adapter { return &kafka.SaramaDriver{} })
	snapshot.Register("s3", func(ctx context.Context, cfg snapshot.Config) (snapshot.Store, error) {
		return snapshot.NewS3(ctx, cfg)
	})
	snapshot.Register("memory", func(context.Context, snapshot.Config) (snapshot.Store, error) {
		return snapshot.NewMemory(), nil
	})

	e, err := engine.Bootstrap(ctx, engine.Config{ConfigPath: cfgPath})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("engine: %v", err)
	}
}
