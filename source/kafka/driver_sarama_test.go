package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
)

type fakeSession struct {
	ctx context.Context

	mu     sync.Mutex
	marked []*sarama.ConsumerMessage
}

func (s *fakeSession) Claims() map[string][]int32               { return nil }
func (s *fakeSession) MemberID() string                         { return "test-member" }
func (s *fakeSession) GenerationID() int32                      { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) Commit()                                  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Context() context.Context                 { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	s.marked = append(s.marked, msg)
	s.mu.Unlock()
}

func (s *fakeSession) markedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.marked)
}

type fakeClaim struct {
	msgs chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Topic() string                            { return "record-changes" }
func (c *fakeClaim) Partition() int32                         { return 0 }
func (c *fakeClaim) InitialOffset() int64                     { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64               { return 0 }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func msgAt(off int64, body string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Topic: "record-changes", Partition: 0, Offset: off, Value: []byte(body)}
}

func TestGroupHandler_BatchesAndMarksAfterEmit(t *testing.T) {
	var (
		mu      sync.Mutex
		batches [][]Delivery
	)
	h := &groupHandler{
		cfg: Config{Batch: BatchCfg{Size: 2, FlushInt: time.Hour}},
		emit: func(_ context.Context, b []Delivery) error {
			cp := make([]Delivery, len(b))
			copy(cp, b)
			mu.Lock()
			batches = append(batches, cp)
			mu.Unlock()
			return nil
		},
	}

	sess := &fakeSession{ctx: context.Background()}
	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, 3)}
	claim.msgs <- msgAt(10, "a")
	claim.msgs <- msgAt(11, "b")
	claim.msgs <- msgAt(12, "c")
	close(claim.msgs)

	if err := h.ConsumeClaim(sess, claim); err != nil {
		t.Fatalf("ConsumeClaim: %v", err)
	}

	if len(batches) != 2 || len(batches[0]) != 2 || len(batches[1]) != 1 {
		t.Fatalf("unexpected batching: %v", batches)
	}
	if batches[0][0].ID != "record-changes/0/10" {
		t.Fatalf("unexpected delivery id: %q", batches[0][0].ID)
	}
	if string(batches[1][0].Body) != "c" {
		t.Fatalf("unexpected body: %q", batches[1][0].Body)
	}
	if sess.markedCount() != 3 {
		t.Fatalf("want all 3 offsets marked, got %d", sess.markedCount())
	}
}

func TestGroupHandler_FailedEmitLeavesOffsetsUnmarked(t *testing.T) {
	h := &groupHandler{
		cfg:  Config{Batch: BatchCfg{Size: 1, FlushInt: time.Hour}},
		emit: func(context.Context, []Delivery) error { return errors.New("handler down") },
	}

	sess := &fakeSession{ctx: context.Background()}
	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, 1)}
	claim.msgs <- msgAt(10, "a")

	if err := h.ConsumeClaim(sess, claim); err == nil {
		t.Fatal("expected emit error to surface")
	}
	if sess.markedCount() != 0 {
		t.Fatalf("failed batch must not mark offsets, got %d", sess.markedCount())
	}
}

func TestGroupHandler_TickerFlushesPartialBatch(t *testing.T) {
	flushed := make(chan []Delivery, 1)
	h := &groupHandler{
		cfg: Config{Batch: BatchCfg{Size: 100, FlushInt: 20 * time.Millisecond}},
		emit: func(_ context.Context, b []Delivery) error {
			cp := make([]Delivery, len(b))
			copy(cp, b)
			select {
			case flushed <- cp:
			default:
			}
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sess := &fakeSession{ctx: ctx}
	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, 1)}
	claim.msgs <- msgAt(10, "a")

	done := make(chan error, 1)
	go func() { done <- h.ConsumeClaim(sess, claim) }()

	select {
	case b := <-flushed:
		if len(b) != 1 {
			t.Fatalf("unexpected partial batch: %v", b)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("partial batch never flushed")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
