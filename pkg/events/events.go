// Package events publishes appointment lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"docboard/config"
)

// Event types
const (
	TypeAppointmentBooked        = "appointment.booked"
	TypeAppointmentStatusChanged = "appointment.status_changed"
	TypeAppointmentCancelled     = "appointment.cancelled"
)

// AppointmentEvent is the JSON payload of every appointment event.
type AppointmentEvent struct {
	EventID         string    `json:"event_id"`
	EventType       string    `json:"event_type"`
	OccurredAt      time.Time `json:"occurred_at"`
	AppointmentID   string    `json:"appointment_id"`
	DoctorID        string    `json:"doctor_id"`
	PatientID       string    `json:"patient_id"`
	StartAt         time.Time `json:"start_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	PreviousStatus  string    `json:"previous_status,omitempty"`
	ActorID         string    `json:"actor_id,omitempty"`
	Reason          string    `json:"reason,omitempty"`
}

// Publisher emits appointment events.
type Publisher interface {
	Publish(ctx context.Context, evt AppointmentEvent) error
	Close() error
}

// NewPublisher returns a Kafka publisher, or a no-op one when no brokers are configured.
func NewPublisher(cfg *config.EventsConfig, logger *zap.Logger) Publisher {
	brokers := splitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		logger.Warn("event publishing disabled (no kafka brokers configured)")
		return NopPublisher{}
	}

	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           timeout,
		AllowAutoTopicCreation: true,
	}

	logger.Info("kafka publisher ready",
		zap.Strings("brokers", brokers),
		zap.String("topic", cfg.Topic),
	)

	return &KafkaPublisher{writer: w, logger: logger}
}

// KafkaPublisher writes one message per event, keyed by appointment id.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// Publish fills id and timestamp when absent and writes the event.
func (p *KafkaPublisher) Publish(ctx context.Context, evt AppointmentEvent) error {
	msg, err := buildMessage(ctx, evt)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", evt.EventType, err)
	}
	return nil
}

// Close flushes pending writes.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, AppointmentEvent) error { return nil }
func (NopPublisher) Close() error                                    { return nil }

func buildMessage(ctx context.Context, evt AppointmentEvent) (kafka.Message, error) {
	if evt.EventID == "" {
		evt.EventID = uuid.New().String()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event: %w", err)
	}

	headers := []kafka.Header{
		{Key: "event_id", Value: []byte(evt.EventID)},
		{Key: "event_type", Value: []byte(evt.EventType)},
	}
	headers = InjectTraceHeaders(ctx, headers)

	return kafka.Message{
		Key:     []byte(evt.AppointmentID),
		Value:   value,
		Headers: headers,
		Time:    evt.OccurredAt,
	}, nil
}

// splitBrokers accepts both list entries and comma separated strings from env.
func splitBrokers(raw []string) []string {
	var brokers []string
	for _, item := range raw {
		for _, b := range strings.Split(item, ",") {
			b = strings.TrimSpace(b)
			if b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	return brokers
}
