package kafka

import (
	"context"
	"encoding/json"

	"checkout-service/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ProducerAPI is the surface the checkout service depends on.
type ProducerAPI interface {
	Publish(ctx context.Context, message []byte) error
	SendCheckoutCompleted(ctx context.Context, evt models.CheckoutCompletedEvent) error
}

type Producer struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	logger.Info("kafka producer initialized",
		zap.String("topic", topic),
		zap.Strings("brokers", brokers),
	)
	return &Producer{writer: w, topic: topic, logger: logger}
}

func (p *Producer) Publish(ctx context.Context, message []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{Value: message})
}

func (p *Producer) SendCheckoutCompleted(ctx context.Context, evt models.CheckoutCompletedEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.Publish(ctx, data)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
