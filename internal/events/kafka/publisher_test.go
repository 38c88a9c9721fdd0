package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/fundseeker/internal/events"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w, topic: DefaultTopic}
	at := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), events.CompanyImported{
		ImportID:               "batch-1",
		CIK:                    320193,
		Name:                   "Apple Inc.",
		Records:                5,
		Applied:                7,
		StandardFundableAmount: decimal.RequireFromString("645300.00"),
		SpecialFundableAmount:  decimal.RequireFromString("742095.00"),
		OccurredAt:             at,
	})
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	m := w.msgs[0]
	if string(m.Key) != "320193" {
		t.Errorf("key: got %q", m.Key)
	}
	if !m.Time.Equal(at) {
		t.Errorf("time: got %v", m.Time)
	}
	if len(m.Headers) != 2 || string(m.Headers[0].Value) != events.TypeCompanyImported {
		t.Errorf("headers: got %+v", m.Headers)
	}

	var got events.CompanyImported
	if err := json.Unmarshal(m.Value, &got); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if got.CIK != 320193 || got.ImportID != "batch-1" || !got.SpecialFundableAmount.Equal(decimal.NewFromInt(742095)) {
		t.Errorf("value: got %+v", got)
	}
}

func TestPublishWriterError(t *testing.T) {
	boom := errors.New("broker unavailable")
	p := &Publisher{writer: &fakeWriter{err: boom}, topic: "t"}
	if err := p.Publish(context.Background(), events.CompanyImported{CIK: 1}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}

func TestNewPublisher(t *testing.T) {
	if _, err := NewPublisher(nil, ""); err == nil {
		t.Error("expected error without brokers")
	}
	p, err := NewPublisher([]string{"localhost:9092"}, "")
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	if p.topic != DefaultTopic {
		t.Errorf("topic: got %q", p.topic)
	}
	w := &fakeWriter{}
	p.writer = w
	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close: err %v closed %v", err, w.closed)
	}
}
