package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/itwhiprentals/itwhip-website-sub025/pkg/logger"

	"github.com/IBM/sarama"
)

// EventNotifier is the boundary the claim engine publishes through. Delivery
// is fire-and-forget from the engine's perspective; a failed publish never
// fails the transition that produced it.
type EventNotifier interface {
	NotifyTransition(ctx context.Context, event *ClaimEvent) error
	Close() error
}

// KafkaProducerConfig contains configuration for the Kafka event producer
type KafkaProducerConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
	MaxMessageBytes  int
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig(brokers []string, topic string) *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          brokers,
		Topic:            topic,
		RetryMax:         3,
		TimeoutMs:        10000,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
		MaxMessageBytes:  1000000, // 1MB
	}
}

// KafkaEventNotifier publishes claim transitions to Kafka
type KafkaEventNotifier struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
	log      *logger.Logger
}

// NewKafkaEventNotifier creates a Kafka-backed notifier
func NewKafkaEventNotifier(config *KafkaProducerConfig) (EventNotifier, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	saramaConfig.Producer.MaxMessageBytes = config.MaxMessageBytes

	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash partitioner keys on request ID so a request's transitions stay ordered
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaEventNotifier{
		producer: producer,
		config:   config,
		log:      logger.GetDefault(),
	}, nil
}

// NotifyTransition publishes a single claim event
func (kn *KafkaEventNotifier) NotifyTransition(ctx context.Context, event *ClaimEvent) error {
	messageBytes, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal claim event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     kn.config.Topic,
		Key:       sarama.StringEncoder(event.GetPartitionKey()),
		Value:     sarama.ByteEncoder(messageBytes),
		Headers:   kn.createHeaders(event),
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := kn.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish claim event: %w", err)
	}

	kn.log.DebugWithContext(ctx, "claim event published", map[string]interface{}{
		"topic":     kn.config.Topic,
		"partition": partition,
		"offset":    offset,
		"kind":      string(event.Kind),
	})

	return nil
}

// createHeaders creates Kafka headers for claim events
func (kn *KafkaEventNotifier) createHeaders(event *ClaimEvent) []sarama.RecordHeader {
	headers := []sarama.RecordHeader{
		{Key: []byte("event_id"), Value: []byte(event.ID.String())},
		{Key: []byte("kind"), Value: []byte(event.Kind)},
		{Key: []byte("request_id"), Value: []byte(event.RequestID.String())},
		{Key: []byte("from_status"), Value: []byte(event.FromStatus)},
		{Key: []byte("to_status"), Value: []byte(event.ToStatus)},
		{Key: []byte("producer"), Value: []byte("itwhip-claim-engine")},
		{Key: []byte("occurred_at"), Value: []byte(event.OccurredAt.Format(time.RFC3339))},
	}

	if event.ClaimID != nil {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte("claim_id"),
			Value: []byte(event.ClaimID.String()),
		})
	}

	if event.HostID != nil {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte("host_id"),
			Value: []byte(event.HostID.String()),
		})
	}

	return headers
}

// Close closes the Kafka producer
func (kn *KafkaEventNotifier) Close() error {
	if kn.producer != nil {
		if err := kn.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
	}
	return nil
}

// NoopNotifier drops every event. Used when Kafka is disabled and in tests.
type NoopNotifier struct{}

func NewNoopNotifier() EventNotifier {
	return &NoopNotifier{}
}

func (n *NoopNotifier) NotifyTransition(ctx context.Context, event *ClaimEvent) error {
	return nil
}

func (n *NoopNotifier) Close() error {
	return nil
}
