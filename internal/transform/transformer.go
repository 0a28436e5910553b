package transform

import (
	"context"
	"errors"
	"time"

	"transformd/internal/logging"
	"transformd/internal/snapshot"
)

// Version is recorded in the write metadata of every transformed snapshot.
const Version = "1.0"

type Status string

const (
	StatusTransformed        Status = "transformed"
	StatusSkipped            Status = "skipped"
	StatusAlreadyTransformed Status = "already_transformed"
	StatusIgnored            Status = "ignored"
	StatusFailed             Status = "failed"
)

// Outcome is the terminal state of processing one change notification.
type Outcome struct {
	Status Status
	Reason string
	Err    string
	Fields int
}

// ChangeEvent is the decoded notification a queue envelope carries.
type ChangeEvent struct {
	Event string
	Stage string
	ID    snapshot.ID
}

// Transformer binds the engine to the single change-event → fetch →
// transform → store operation.
type Transformer struct {
	engine *Engine
	store  snapshot.Store
	now    func() time.Time
}

func NewTransformer(engine *Engine, store snapshot.Store) *Transformer {
	return &Transformer{engine: engine, store: store, now: time.Now}
}

// Process runs one change notification to a terminal state. Failures are
// folded into the outcome; they never abort the surrounding batch.
func (t *Transformer) Process(ctx context.Context, ev ChangeEvent) Outcome {
	log := logging.With("entity_id", ev.ID.EntityID, "bundle_id", ev.ID.BundleID)

	if ev.Event != "record_added" || ev.Stage != snapshot.StageStaged {
		log.Warn("unexpected change event", "event", ev.Event, "stage", ev.Stage)
		return Outcome{Status: StatusIgnored, Reason: "not a staged record_added event"}
	}

	staged, err := t.store.Get(ctx, ev.ID, snapshot.StageStaged)
	if err != nil {
		return Outcome{Status: StatusFailed, Err: "fetch staged snapshot: " + err.Error()}
	}

	// at-most-one durable write per snapshot under redelivery
	_, err = t.store.Get(ctx, ev.ID, snapshot.StageTransformed)
	if err == nil {
		log.Info("record already transformed, skipping")
		return Outcome{Status: StatusAlreadyTransformed, Reason: "already transformed"}
	}
	if !errors.Is(err, snapshot.ErrNotFound) {
		return Outcome{Status: StatusFailed, Err: "idempotency check: " + err.Error()}
	}

	res := t.engine.TransformRecord(ev.ID, staged)
	if !res.Success {
		return Outcome{Status: StatusFailed, Err: res.ErrMessage}
	}
	if res.Skipped {
		log.Info("record skipped", "reason", res.SkipReason)
		return Outcome{Status: StatusSkipped, Reason: res.SkipReason}
	}

	meta := snapshot.Metadata{
		TransformedAt:      t.now().UTC().Format(time.RFC3339),
		TransformerVersion: Version,
		SourceStage:        snapshot.StageStaged,
	}
	if err := t.store.Put(ctx, ev.ID, snapshot.StageTransformed, meta, res.Transformed); err != nil {
		return Outcome{Status: StatusFailed, Err: "store transformed snapshot: " + err.Error()}
	}

	log.Info("record transformed", "fields_transformed", len(res.Transformed))
	return Outcome{Status: StatusTransformed, Fields: len(res.Transformed)}
}
