package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"github.com/ricesearch/evalkit/internal/config"
	apperrors "github.com/ricesearch/evalkit/internal/pkg/errors"
)

// TestKafkaConfig_Validation tests configuration validation.
func TestKafkaConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  KafkaConfig
	}{
		{
			name: "empty brokers",
			cfg:  KafkaConfig{Brokers: []string{}},
		},
		{
			name: "invalid kafka version",
			cfg: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Version: "invalid",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewKafkaBus(tt.cfg); err == nil {
				t.Error("NewKafkaBus() error = nil, want error")
			}
		})
	}
}

// TestParseKafkaBrokers tests broker string parsing.
func TestParseKafkaBrokers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single broker", "localhost:9092", []string{"localhost:9092"}},
		{"multiple brokers", "k1:9092,k2:9092", []string{"k1:9092", "k2:9092"}},
		{"whitespace", " k1:9092 , k2:9092 ", []string{"k1:9092", "k2:9092"}},
		{"trailing comma", "k1:9092,", []string{"k1:9092"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseKafkaBrokers(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseKafkaBrokers(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseKafkaBrokers(%q)[%d] = %s, want %s", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

// TestKafkaBus_Interface verifies KafkaBus implements Bus interface.
func TestKafkaBus_Interface(t *testing.T) {
	var _ Bus = (*KafkaBus)(nil)
	var _ Bus = (*MemoryBus)(nil)
}

func TestKafkaBus_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event Event
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		if event.ID != "run-1:valid:gini:3" {
			return fmt.Errorf("unexpected id %q", event.ID)
		}
		if event.Source != "trainer" {
			return fmt.Errorf("source not defaulted, got %q", event.Source)
		}
		return nil
	})

	bus := NewKafkaBusWithProducer(producer, "trainer")
	err := bus.Publish(context.Background(), TopicEvalRecorded, Event{
		ID:      "run-1:valid:gini:3",
		Type:    TopicEvalRecorded,
		Payload: map[string]float64{"value": 0.42},
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestKafkaBus_PublishFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	bus := NewKafkaBusWithProducer(producer, "trainer")
	defer bus.Close()

	err := bus.Publish(context.Background(), TopicEvalRecorded, Event{ID: "1"})
	if err == nil {
		t.Fatal("Publish() error = nil, want error")
	}
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Errorf("Publish() error = %v, want wrapped ErrOutOfBrokers", err)
	}
}

func TestKafkaBus_PublishCancelled(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	bus := NewKafkaBusWithProducer(producer, "trainer")
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := bus.Publish(ctx, TopicEvalRecorded, Event{ID: "1"}); err == nil {
		t.Error("Publish() with cancelled context should fail")
	}
}

// TestKafkaBus_CloseIdempotent tests that Close() can be called multiple times safely.
func TestKafkaBus_CloseIdempotent(t *testing.T) {
	bus := NewKafkaBusWithProducer(mocks.NewSyncProducer(t, nil), "trainer")

	if err := bus.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	err := bus.Publish(context.Background(), "test", Event{ID: "test"})
	if !apperrors.HasCode(err, apperrors.CodeUnavailable) {
		t.Errorf("Publish() after Close() error = %v, want %s", err, apperrors.CodeUnavailable)
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Details["reason"] != "closed" {
		t.Errorf("Details[reason] = %q, want closed", appErr.Details["reason"])
	}
}

func TestKafkaBus_SubscribeUnsupported(t *testing.T) {
	bus := NewKafkaBusWithProducer(mocks.NewSyncProducer(t, nil), "trainer")
	defer bus.Close()

	err := bus.Subscribe(context.Background(), "test", func(ctx context.Context, event Event) error {
		return nil
	})
	if err == nil {
		t.Error("Subscribe() on publish-only bus should return error")
	}
}

func TestNewBus(t *testing.T) {
	b, err := NewBus(config.BusConfig{Type: "memory"}, nil)
	if err != nil {
		t.Fatalf("NewBus(memory) error = %v", err)
	}
	if _, ok := b.(*MemoryBus); !ok {
		t.Errorf("NewBus(memory) = %T, want *MemoryBus", b)
	}
	b.Close()

	if _, err := NewBus(config.BusConfig{Type: "kafka"}, nil); err == nil {
		t.Error("NewBus(kafka) without brokers should fail")
	}
	if _, err := NewBus(config.BusConfig{Type: "nats"}, nil); err == nil {
		t.Error("NewBus(nats) should fail")
	}

	b, err = NewBus(config.BusConfig{Type: "memory", RateLimit: 50, Burst: 5}, nil)
	if err != nil {
		t.Fatalf("NewBus(rate limited) error = %v", err)
	}
	if _, ok := b.(*RateLimitedBus); !ok {
		t.Errorf("NewBus(rate limited) = %T, want *RateLimitedBus", b)
	}
	b.Close()
}
