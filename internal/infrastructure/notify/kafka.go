package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type KafkaConfig struct {
	Broker   string
	Topic    string
	ClientID string
}

// KafkaNotifier writes notifications to a topic keyed by order ID, carrying the
// trace context in the message headers.
type KafkaNotifier struct {
	writer *otelkafka.Writer
}

func NewKafka(cfg KafkaConfig, tp trace.TracerProvider) (*KafkaNotifier, error) {
	base := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Broker),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		RequiredAcks: kafka.RequireOne,
	}
	w, err := otelkafka.NewWriter(base,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				semconv.MessagingDestinationNameKey.String(cfg.Topic),
				attribute.String("messaging.kafka.client_id", cfg.ClientID),
			},
		),
	)
	if err != nil {
		return nil, fmt.Errorf("notify: kafka writer: %w", err)
	}
	return &KafkaNotifier{writer: w}, nil
}

func (n *KafkaNotifier) NotifyOrderPlaced(ctx context.Context, orderID int64, recipientEmail string) error {
	b, err := encode(orderID, recipientEmail)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(orderID, 10)),
		Value: b,
	}
	if err := n.writer.WriteMessage(ctx, msg); err != nil {
		return fmt.Errorf("notify: kafka write: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
