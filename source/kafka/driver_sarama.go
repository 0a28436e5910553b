package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"transformd/internal/logging"
)

type SaramaDriver struct {
	cfg   Config
	cl    sarama.Client
	group sarama.ConsumerGroup
}

func (d *SaramaDriver) Configure(config Config) error {
	d.cfg = config

	ver, err := sarama.ParseKafkaVersion(config.Version)
	if err != nil {
		return err
	}
	sc := sarama.NewConfig()
	sc.Version = ver
	sc.Consumer.Return.Errors = true
	if config.TLSEn {
		sc.Net.TLS.Enable = true
	}
	if config.SASLUser != "" {
		sc.Net.SASL.Enable = true
		sc.Net.SASL.User, sc.Net.SASL.Password = config.SASLUser, config.SASLPass
	}
	switch config.StartFrom {
	case "oldest":
		sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	default:
		sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	if d.cl, err = sarama.NewClient(config.Brokers, sc); err != nil {
		return err
	}
	d.group, err = sarama.NewConsumerGroupFromClient(config.GroupID, d.cl)
	return err
}

func (d *SaramaDriver) Run(ctx context.Context, emit BatchFunc) error {
	handler := &groupHandler{cfg: d.cfg, emit: emit}

	for {
		if err := d.group.Consume(ctx, d.cfg.Topics, handler); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (d *SaramaDriver) Close() error {
	_ = d.group.Close()
	_ = d.cl.Close()
	return nil
}

type groupHandler struct {
	cfg  Config
	emit BatchFunc
}

func (*groupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (*groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func deliveryID(m *sarama.ConsumerMessage) string {
	return fmt.Sprintf("%s/%d/%d", m.Topic, m.Partition, m.Offset)
}

// ConsumeClaim accumulates deliveries into batches and hands each batch to
// the emit function. Offsets are marked only after emit returns nil, so an
// unhandled batch is redelivered on restart.
func (h *groupHandler) ConsumeClaim(
	sess sarama.ConsumerGroupSession,
	claim sarama.ConsumerGroupClaim,
) error {
	batch := make([]Delivery, 0, h.cfg.Batch.Size)
	msgs := make([]*sarama.ConsumerMessage, 0, h.cfg.Batch.Size)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := h.emit(sess.Context(), batch); err != nil {
			return err
		}
		for _, m := range msgs {
			sess.MarkMessage(m, "")
		}
		logging.L().Debug("kafka batch handled",
			"topic", claim.Topic(), "partition", claim.Partition(), "count", len(batch))
		batch = batch[:0]
		msgs = msgs[:0]
		return nil
	}

	ticker := time.NewTicker(h.cfg.Batch.FlushInt)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return flush()
			}
			batch = append(batch, Delivery{ID: deliveryID(msg), Body: msg.Value})
			msgs = append(msgs, msg)
			if len(batch) >= h.cfg.Batch.Size {
				if err := flush(); err != nil {
					return err
				}
			}
		case <-ticker.C:
			if err := flush(); err != nil {
				return err
			}
		case <-sess.Context().Done():
			return sess.Context().Err()
		}
	}
}
