package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEncodesJSON(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "gzip")
	err := p.Publish(context.Background(), "events", []byte("AAPL"), map[string]int{"n": 1})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	m := w.msgs[0]
	if m.Topic != "events" || string(m.Key) != "AAPL" || string(m.Value) != `{"n":1}` {
		t.Fatalf("unexpected message %+v", m)
	}
}

func TestPublishBatchPassesRawValues(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "gzip")
	err := p.PublishBatch(context.Background(), "logs", []Message{
		{Key: []byte("a"), Value: "plain"},
		{Key: []byte("b"), Value: []byte("raw")},
	})
	if err != nil {
		t.Fatalf("publish batch: %v", err)
	}
	if string(w.msgs[0].Value) != "plain" || string(w.msgs[1].Value) != "raw" {
		t.Fatalf("unexpected values %q %q", w.msgs[0].Value, w.msgs[1].Value)
	}
	if err := p.PublishBatch(context.Background(), "logs", nil); err != nil || len(w.msgs) != 2 {
		t.Fatalf("empty batch must be a no-op")
	}
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&fakeWriter{err: boom}, "gzip")
	if err := p.Publish(context.Background(), "events", nil, "x"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Fatalf("expected error without brokers")
	}
	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithHashByKey(true))
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig()
	cfg.Brokers = []string{"localhost:9092"}
	WithBatching(0, 0, 0)(&cfg)
	WithCompression("")(&cfg)
	if cfg.BatchSize != 100 || cfg.Compression != "gzip" {
		t.Fatalf("zero options must keep defaults: %+v", cfg)
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	WithCompression("zstd")(&cfg)
	WithHashByKey(true)(&cfg)
	w := cfg.writer()
	if w.Compression != kafka.Zstd {
		t.Fatalf("unexpected compression %v", w.Compression)
	}
	if _, ok := w.Balancer.(*kafka.Hash); !ok {
		t.Fatalf("expected hash balancer, got %T", w.Balancer)
	}

	bad := cfg
	bad.Compression = "bogus"
	if err := bad.validate(); err == nil {
		t.Fatalf("expected unsupported compression error")
	}
	bad = cfg
	bad.RequiredAcks = 2
	if err := bad.validate(); err == nil {
		t.Fatalf("expected required acks error")
	}
}
