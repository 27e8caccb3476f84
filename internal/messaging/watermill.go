package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const partitionKeyMetadata = "partition_key"

// WatermillPublisher adapts a Watermill publisher to the Publisher
// interface, JSON-encoding each event.
type WatermillPublisher struct {
	pub message.Publisher
}

// NewWatermillPublisher wraps an existing Watermill publisher.
func NewWatermillPublisher(pub message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{pub: pub}
}

// NewGoChannel returns an in-process pub/sub pair. The subscriber side is
// exposed so consumers (UI bridges, tests) can observe emitted events.
func NewGoChannel(logger watermill.LoggerAdapter) (*WatermillPublisher, message.Subscriber) {
	ch := gochannel.NewGoChannel(gochannel.Config{}, logger)
	return &WatermillPublisher{pub: ch}, ch
}

// NewKafka returns a publisher backed by a Kafka cluster. The partition
// key is taken from message metadata so events for the same entity land
// on the same partition.
func NewKafka(brokers []string, logger watermill.LoggerAdapter) (*WatermillPublisher, error) {
	saramaConfig := kafka.DefaultSaramaSyncPublisherConfig()
	saramaConfig.ClientID = "bodyrevival-storefront"
	saramaConfig.Producer.Compression = sarama.CompressionSnappy

	pub, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers: brokers,
			Marshaler: kafka.NewWithPartitioningMarshaler(func(topic string, msg *message.Message) (string, error) {
				return msg.Metadata.Get(partitionKeyMetadata), nil
			}),
			OverwriteSaramaConfig: saramaConfig,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	return &WatermillPublisher{pub: pub}, nil
}

// PublishEvent JSON-encodes the event and publishes it on the topic.
func (p *WatermillPublisher) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event for topic %s: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(partitionKeyMetadata, key)
	msg.SetContext(ctx)

	return p.pub.Publish(topic, msg)
}

// Close releases the underlying publisher.
func (p *WatermillPublisher) Close() error {
	return p.pub.Close()
}
