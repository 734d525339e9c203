package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type writerStub struct {
	messages []kafka.Message
	err      error
}

func (s *writerStub) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msgs...)
	return nil
}

func (s *writerStub) Close() error { return nil }

type channelStub struct {
	exchange   string
	routingKey string
	published  []amqp.Publishing
	err        error
}

func (s *channelStub) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if s.err != nil {
		return s.err
	}
	s.exchange = exchange
	s.routingKey = key
	s.published = append(s.published, msg)
	return nil
}

func TestAlertPublisher_PostAndDeleteShareKey(t *testing.T) {
	writer := &writerStub{}
	publisher := NewAlertPublisher(writer)
	details := domain.AlertDetails{TrackingNumber: "A123456789012", PortalAccountID: 9, Amount: decimal.NewFromInt(25)}

	if err := publisher.Post(context.Background(), domain.AlertPendingAchReversal, details); err != nil {
		t.Fatalf("post alert: %v", err)
	}
	if err := publisher.Delete(context.Background(), domain.AlertPendingAchReversal, details, 77); err != nil {
		t.Fatalf("delete alert: %v", err)
	}

	if len(writer.messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(writer.messages))
	}
	if string(writer.messages[0].Key) != string(writer.messages[1].Key) {
		t.Fatalf("expected post and delete to share a key, got %s and %s", writer.messages[0].Key, writer.messages[1].Key)
	}

	var event AlertEvent
	if err := json.Unmarshal(writer.messages[1].Value, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Action != alertActionDelete || event.ResolvedBy != 77 {
		t.Fatalf("unexpected delete event %+v", event)
	}
}

func TestAlertPublisher_WrapsWriteFailure(t *testing.T) {
	publisher := NewAlertPublisher(&writerStub{err: errors.New("broker down")})

	err := publisher.Post(context.Background(), domain.AlertRefundUpdateFailed, domain.AlertDetails{TrackingNumber: "V987654321098"})
	var notificationErr *domain.NotificationError
	if !errors.As(err, &notificationErr) || notificationErr.Channel != "alert" {
		t.Fatalf("expected alert notification error, got %v", err)
	}
}

func TestEmailPublisher_SendFailedRefundChargeback(t *testing.T) {
	channel := &channelStub{}
	publisher := newEmailPublisher(channel, "payments.notifications", "payments.email.failed_refund")

	tx := domain.Transaction{TrackingNumber: "A123456789012", Amount: decimal.RequireFromString("10.5")}
	entity := domain.EntityAccount{ID: 4, InstitutionName: "Fairview CU"}
	if err := publisher.SendFailedRefundChargeback(context.Background(), tx, entity, "Error: rejected"); err != nil {
		t.Fatalf("send email: %v", err)
	}

	if channel.exchange != "payments.notifications" || channel.routingKey != "payments.email.failed_refund" {
		t.Fatalf("unexpected destination %s/%s", channel.exchange, channel.routingKey)
	}
	if len(channel.published) != 1 {
		t.Fatalf("expected one message, got %d", len(channel.published))
	}

	var req EmailRequest
	if err := json.Unmarshal(channel.published[0].Body, &req); err != nil {
		t.Fatalf("decode email request: %v", err)
	}
	if req.Template != failedRefundChargebackTemplate || req.Fields["amount"] != "10.50" || req.Fields["message"] != "Error: rejected" {
		t.Fatalf("unexpected email request %+v", req)
	}
}

func TestEmailPublisher_WrapsPublishFailure(t *testing.T) {
	publisher := newEmailPublisher(&channelStub{err: errors.New("channel closed")}, "x", "y")

	err := publisher.SendFailedRefundChargeback(context.Background(), domain.Transaction{}, domain.EntityAccount{}, "m")
	var notificationErr *domain.NotificationError
	if !errors.As(err, &notificationErr) || notificationErr.Channel != "email" {
		t.Fatalf("expected email notification error, got %v", err)
	}
}
