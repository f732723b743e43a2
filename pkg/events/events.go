package events

import (
	"context"
	"time"

	"innkeep/pkg/kafka"
	kafka_config "innkeep/pkg/kafka/config"
	kafka_middleware "innkeep/pkg/kafka/middleware"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"
)

// Event types published to the booking events topic. Downstream consumers
// (reporting, notifications) key off these.
const (
	TypeBookingCreated       = "booking.created"
	TypeBookingStatusChanged = "booking.status_changed"
	TypeBookingDeleted       = "booking.deleted"
	TypePaymentReceived      = "payment.received"
	TypeExtraChargeAdded     = "booking.extra_charge_added"
	TypeRevenueRefunded      = "revenue.refunded"
	TypeFoodOrderPlaced      = "food_order.placed"
)

// BookingEvent is the payload for every event on the topic. Fields that do
// not apply to a given type are zero.
type BookingEvent struct {
	Type          string         `json:"type"`
	BookingID     string         `json:"booking_id"`
	Property      model.Property `json:"property"`
	RoomNumber    string         `json:"room_number,omitempty"`
	FromStatus    string         `json:"from_status,omitempty"`
	ToStatus      string         `json:"to_status,omitempty"`
	PaymentStatus string         `json:"payment_status,omitempty"`
	Amount        float64        `json:"amount,omitempty"`
	Method        string         `json:"method,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

// Publisher emits booking lifecycle events. Publishing is best effort: a
// broker outage must never fail the booking mutation that triggered the
// event, so implementations log and swallow errors.
type Publisher interface {
	Publish(ctx context.Context, evt BookingEvent)
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher returns a Kafka-backed publisher, or a no-op one when no
// brokers are configured.
func NewPublisher(brokers []string, topic string, log *logger.Logger) (Publisher, error) {
	if len(brokers) == 0 {
		log.Info("Kafka brokers not configured, event publishing disabled")
		return NopPublisher{}, nil
	}

	cfg := kafka_config.Load()
	cfg.Brokers = brokers

	producer, err := kafka.NewProducer(cfg, topic, topic+".dlq")
	if err != nil {
		return nil, err
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(log))
	producer.Use(kafka_middleware.MetricsProducerMiddleware())

	log.Info("Event publisher initialized", "topic", topic, "brokers", brokers)
	return &kafkaPublisher{producer: producer, log: log}, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, evt BookingEvent) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	msg := kafka.NewMessage().
		WithKey(evt.BookingID).
		WithValue(evt).
		WithEventType(evt.Type).
		WithSource("pms").
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish booking event",
			"type", evt.Type,
			"booking_id", evt.BookingID,
			"error", err,
		)
	}
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher drops every event. Used when Kafka is not configured and in
// tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, BookingEvent) {}

func (NopPublisher) Close() error { return nil }
