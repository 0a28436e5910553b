package snapshot

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemory()
	id := ID{EntityID: "ent-1", BundleID: "bnd-1"}
	meta := Metadata{TransformedAt: "2024-01-01T00:00:00Z", TransformerVersion: "1.0", SourceStage: StageStaged}

	if err := s.Put(context.Background(), id, StageTransformed, meta, map[string]any{"name": "Acme"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(context.Background(), id, StageTransformed)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got["name"] != "Acme" {
		t.Fatalf("unexpected payload: %v", got)
	}

	// a caller mutating the returned map must not affect the stored copy
	got["name"] = "mutated"
	again, _ := s.Get(context.Background(), id, StageTransformed)
	if again["name"] != "Acme" {
		t.Fatal("stored payload must be isolated from callers")
	}

	m, ok := s.Meta(id, StageTransformed)
	if !ok || m != meta {
		t.Fatalf("unexpected metadata: %+v", m)
	}
	if s.Puts() != 1 {
		t.Fatalf("want 1 write, got %d", s.Puts())
	}
}

func TestMemoryStore_MissingIsNotFound(t *testing.T) {
	s := NewMemory()
	id := ID{EntityID: "ent-1", BundleID: "bnd-1"}

	if _, err := s.Get(context.Background(), id, StageStaged); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	// stages are independent key spaces
	if err := s.Put(context.Background(), id, StageStaged, Metadata{}, map[string]any{"a": 1}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := s.Get(context.Background(), id, StageTransformed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for other stage, got %v", err)
	}
}
