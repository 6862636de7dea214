package bus

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/ricesearch/evalkit/internal/pkg/errors"
)

// KafkaBus publishes events to Kafka. It is a sink: evaluation consumers
// (dashboards, experiment trackers) read the topics with their own clients.
type KafkaBus struct {
	producer sarama.SyncProducer
	source   string

	mu     sync.RWMutex
	closed bool
}

// KafkaConfig holds Kafka connection settings.
type KafkaConfig struct {
	Brokers  []string      // Kafka broker addresses
	ClientID string        // Client identifier
	Version  string        // Kafka version (e.g., "2.8.0")
	Timeout  time.Duration // Dial/read/write timeout (default: 10s)
}

// NewKafkaBus creates a new Kafka-backed event bus.
func NewKafkaBus(cfg KafkaConfig) (*KafkaBus, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.CodeValidation, "kafka brokers cannot be empty")
	}

	// Set defaults
	if cfg.ClientID == "" {
		cfg.ClientID = "evalkit"
	}
	if cfg.Version == "" {
		cfg.Version = "2.8.0"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	version, err := sarama.ParseKafkaVersion(cfg.Version)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "invalid kafka version", err)
	}

	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Version = version
	kafkaConfig.ClientID = cfg.ClientID
	kafkaConfig.Producer.Return.Successes = true
	kafkaConfig.Producer.Return.Errors = true
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Net.DialTimeout = cfg.Timeout
	kafkaConfig.Net.ReadTimeout = cfg.Timeout
	kafkaConfig.Net.WriteTimeout = cfg.Timeout

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnavailable, "failed to create kafka producer", err)
	}

	return NewKafkaBusWithProducer(producer, cfg.ClientID), nil
}

// NewKafkaBusWithProducer wraps an existing producer.
func NewKafkaBusWithProducer(producer sarama.SyncProducer, source string) *KafkaBus {
	return &KafkaBus{
		producer: producer,
		source:   source,
	}
}

// Publish publishes an event to a Kafka topic.
func (b *KafkaBus) Publish(ctx context.Context, topic string, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errors.ServiceUnavailableError("kafka bus").WithDetail("reason", "closed")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.CodeUnavailable, "publish cancelled", err)
	}

	if event.Source == "" {
		event.Source = b.source
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to marshal event", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(data),
		Key:   sarama.StringEncoder(event.ID), // Use event ID as partition key
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	if _, _, err := b.producer.SendMessage(msg); err != nil {
		return errors.Wrap(errors.CodeUnavailable, "failed to publish to kafka", err)
	}

	return nil
}

// Subscribe is not supported; KafkaBus only produces.
func (b *KafkaBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errors.ServiceUnavailableError("kafka bus").WithDetail("reason", "closed")
	}
	return errors.New(errors.CodeInternal, "kafka bus is publish-only")
}

// Close flushes and closes the producer. Safe to call more than once.
func (b *KafkaBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	if b.producer == nil {
		return nil
	}
	if err := b.producer.Close(); err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to close kafka producer", err)
	}
	return nil
}

// ParseKafkaBrokers parses a comma-separated string of Kafka brokers.
func ParseKafkaBrokers(brokersStr string) []string {
	if strings.TrimSpace(brokersStr) == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(brokersStr, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
