package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	alertActionPost   = "post"
	alertActionDelete = "delete"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AlertEvent is the payload published for the operations dashboard. Alerts are keyed by
// type and tracking number, so a delete clears the alert raised by an earlier post.
type AlertEvent struct {
	ID         uuid.UUID           `json:"id"`
	Action     string              `json:"action"`
	Type       domain.AlertType    `json:"type"`
	Details    domain.AlertDetails `json:"details"`
	ResolvedBy int64               `json:"resolvedBy,omitempty"`
	OccurredAt time.Time           `json:"occurredAt"`
}

type AlertPublisher struct {
	writer messageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Info("kafka writer", logger.Fields{"message": fmt.Sprintf(msg, args...)})
		}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error("kafka writer", fmt.Errorf(msg, args...), nil)
		}),
	}
}

func NewAlertPublisher(writer messageWriter) *AlertPublisher {
	return &AlertPublisher{writer: writer}
}

func (p *AlertPublisher) Post(ctx context.Context, alertType domain.AlertType, details domain.AlertDetails) error {
	return p.publish(ctx, AlertEvent{
		ID:         uuid.New(),
		Action:     alertActionPost,
		Type:       alertType,
		Details:    details,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *AlertPublisher) Delete(ctx context.Context, alertType domain.AlertType, details domain.AlertDetails, actorID int64) error {
	return p.publish(ctx, AlertEvent{
		ID:         uuid.New(),
		Action:     alertActionDelete,
		Type:       alertType,
		Details:    details,
		ResolvedBy: actorID,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *AlertPublisher) Close() error {
	return p.writer.Close()
}

func (p *AlertPublisher) publish(ctx context.Context, event AlertEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode alert event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(alertKey(event)),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "type", Value: []byte(event.Type)},
		},
	}); err != nil {
		logger.Error("alert publish failed", err, logger.Fields{
			"type":           event.Type,
			"action":         event.Action,
			"trackingNumber": event.Details.TrackingNumber,
		})
		return &domain.NotificationError{Channel: "alert", Err: err}
	}
	return nil
}

func alertKey(event AlertEvent) string {
	return string(event.Type) + ":" + event.Details.TrackingNumber + ":" + strconv.FormatInt(event.Details.PortalAccountID, 10)
}
