package events

import (
	"fmt"
	"log/slog"

	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
)

// NewKafkaPublisher creates a Kafka-backed publisher for deployments with a
// broker configured. Falls back to NewGoChannelPublisher when brokers is empty.
func NewKafkaPublisher(brokers []string, logger *slog.Logger) (*WatermillPublisher, error) {
	if len(brokers) == 0 {
		return NewGoChannelPublisher(logger), nil
	}

	saramaConfig := kafka.DefaultSaramaSyncPublisherConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3

	pub, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaConfig,
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return NewWatermillPublisher(pub, GradingEventsTopic, logger), nil
}
