// Package engine wires the queue source, the transform handler, the snapshot
// store, and the health/metrics surface into one runnable process.
package engine

import (
	"context"
	"net/http"
	"time"

	"transformd/internal/logging"
	"transformd/internal/snapshot"
	"transformd/internal/transform"
	"transformd/source/kafka"
)

type Engine struct {
	source  kafka.Adapter
	handler *transform.Handler
	store   snapshot.Store
	health  *http.Server
}

func (e *Engine) emit(ctx context.Context, batch []kafka.Delivery) error {
	ds := make([]transform.Delivery, len(batch))
	for i, d := range batch {
		ds[i] = transform.Delivery{ID: d.ID, Body: d.Body}
	}
	_, err := e.handler.HandleBatch(ctx, ds)
	return err
}

// Run consumes notifications until ctx is cancelled or the source fails.
func (e *Engine) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.source.Run(ctx, e.emit)
	}()

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = e.health.Shutdown(shutdownCtx)
	_ = e.source.Close()
	_ = e.store.Close()

	logging.L().Info("engine stopped")
	return err
}
