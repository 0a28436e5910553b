package transform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"transformd/internal/logging"
	"transformd/internal/schema"
	"transformd/internal/snapshot"
	"transformd/internal/strategy"
	"transformd/internal/telemetry"
)

// Delivery is one queued notification handed over by the queue collaborator.
type Delivery struct {
	ID   string
	Body []byte
}

// RecordResult is the terminal outcome for one delivery in a batch.
type RecordResult struct {
	RecordID string `json:"record_id"`
	EntityID string `json:"entity_id,omitempty"`
	BundleID string `json:"bundle_id,omitempty"`
	Success  bool   `json:"success"`
	Skipped  bool   `json:"skipped,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Error    string `json:"error,omitempty"`
	Fields   int    `json:"fields_transformed,omitempty"`
}

// Report aggregates one notification batch.
type Report struct {
	BatchID    string         `json:"batch_id"`
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Results    []RecordResult `json:"results"`
}

type envelope struct {
	Change *struct {
		Event    string `json:"event"`
		Stage    string `json:"stage"`
		RecordID *struct {
			EntityID string `json:"entity_id"`
			BundleID string `json:"bundle_id"`
		} `json:"record_id"`
	} `json:"change"`
}

func parseEnvelope(body []byte) (ChangeEvent, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ChangeEvent{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Change == nil {
		return ChangeEvent{}, errors.New("no change event found in message")
	}
	if env.Change.RecordID == nil {
		return ChangeEvent{}, errors.New("no record_id found in change event")
	}
	if env.Change.RecordID.EntityID == "" || env.Change.RecordID.BundleID == "" {
		return ChangeEvent{}, errors.New("invalid record_id: missing entity_id or bundle_id")
	}
	return ChangeEvent{
		Event: env.Change.Event,
		Stage: env.Change.Stage,
		ID: snapshot.ID{
			EntityID: env.Change.RecordID.EntityID,
			BundleID: env.Change.RecordID.BundleID,
		},
	}, nil
}

var ErrNotInitialized = errors.New("transform: handler not initialized")

// Handler consumes batches of queued notifications. It has a two-phase
// lifecycle: construct with NewHandler, then Initialize once before the
// first batch. Initialize is idempotent.
type Handler struct {
	store      snapshot.Store
	reg        *strategy.Registry
	schemaPath string

	mu          sync.Mutex
	initialized bool
	transformer *Transformer
}

func NewHandler(store snapshot.Store, reg *strategy.Registry, schemaPath string) *Handler {
	return &Handler{store: store, reg: reg, schemaPath: schemaPath}
}

// Initialize loads the target schema and builds the engine. Subsequent calls
// are no-ops. A failure here is fatal for the handler, unlike any per-record
// condition.
func (h *Handler) Initialize(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.initialized {
		return nil
	}
	sch, dir, err := schema.Load(h.schemaPath)
	if err != nil {
		return fmt.Errorf("load target schema: %w", err)
	}
	eng := NewEngine(&sch, h.reg, dir)
	h.transformer = NewTransformer(eng, h.store)
	h.initialized = true
	logging.L().Info("transform handler initialized",
		"schema", h.schemaPath, "fields", len(sch.Company), "mapping_tables", eng.TableCount())
	return nil
}

// Ready reports whether Initialize has completed.
func (h *Handler) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initialized
}

// HandleBatch processes each delivery independently and aggregates a report.
// One record's failure never prevents processing of the rest; the only error
// returned is an uninitialized handler.
func (h *Handler) HandleBatch(ctx context.Context, batch []Delivery) (Report, error) {
	h.mu.Lock()
	tr, ready := h.transformer, h.initialized
	h.mu.Unlock()
	if !ready {
		return Report{}, ErrNotInitialized
	}

	start := time.Now()
	rep := Report{BatchID: uuid.NewString(), Total: len(batch)}
	for _, d := range batch {
		res := h.processDelivery(ctx, tr, d)
		if res.Success {
			rep.Successful++
		} else {
			rep.Failed++
		}
		rep.Results = append(rep.Results, res)
	}
	telemetry.ObserveBatch(time.Since(start))

	logging.L().Info("transformation batch completed",
		"batch_id", rep.BatchID, "total", rep.Total,
		"successful", rep.Successful, "failed", rep.Failed)
	return rep, nil
}

func (h *Handler) processDelivery(ctx context.Context, tr *Transformer, d Delivery) RecordResult {
	ev, err := parseEnvelope(d.Body)
	if err != nil {
		logging.L().Error("failed to parse notification", "record_id", d.ID, "error", err)
		telemetry.RecordOutcome("invalid_envelope")
		return RecordResult{RecordID: d.ID, Error: err.Error()}
	}

	out := tr.Process(ctx, ev)
	telemetry.RecordOutcome(string(out.Status))

	res := RecordResult{
		RecordID: d.ID,
		EntityID: ev.ID.EntityID,
		BundleID: ev.ID.BundleID,
	}
	switch out.Status {
	case StatusFailed:
		logging.L().Error("failed to process record", "record_id", d.ID, "error", out.Err)
		res.Error = out.Err
	case StatusSkipped, StatusAlreadyTransformed:
		res.Success = true
		res.Skipped = true
		res.Reason = out.Reason
	case StatusIgnored:
		res.Success = true
		res.Reason = out.Reason
	default:
		res.Success = true
		res.Fields = out.Fields
	}
	return res
}
