package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

const auditProducer = "auto-uc2-dashboard"

// AuditEvent describes one confirmed destructive action.
type AuditEvent struct {
	Action   string `json:"action"`
	Resource string `json:"resource"`
	TargetID string `json:"target_id"`
	ActorID  string `json:"actor_id,omitempty"`
}

// RoutingKey is e.g. "vehicles.deleted.v1".
func (e AuditEvent) RoutingKey() string {
	return e.Resource + "." + e.Action + ".v1"
}

type AuditMeta struct {
	CorrelationID *string   `json:"correlation_id,omitempty"`
	ID            string    `json:"id"`
	Producer      *string   `json:"producer,omitempty"`
	Time          time.Time `json:"time"`
	Type          string    `json:"type"`
}

type AuditEnvelope struct {
	Meta AuditMeta  `json:"meta"`
	Data AuditEvent `json:"data"`
}

// NewAuditEnvelope stamps ev with a fresh id and the current time.
func NewAuditEnvelope(ev AuditEvent) AuditEnvelope {
	producer := auditProducer
	return AuditEnvelope{
		Meta: AuditMeta{
			ID:       uuid.NewString(),
			Producer: &producer,
			Time:     time.Now().UTC(),
			Type:     ev.RoutingKey(),
		},
		Data: ev,
	}
}

// Auditor records destructive actions. Failures are logged, never surfaced.
type Auditor interface {
	Record(ctx context.Context, ev AuditEvent)
}

type NopAuditor struct{}

func (NopAuditor) Record(context.Context, AuditEvent) {}

// AMQPAudit publishes audit envelopes to a topic exchange.
type AMQPAudit struct {
	conn     *amqp091.Connection
	exchange string
	log      *slog.Logger
}

func NewAMQPAudit(url, exchange string, logger *slog.Logger) (*AMQPAudit, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	return &AMQPAudit{conn: conn, exchange: exchange, log: logger}, nil
}

func (a *AMQPAudit) Record(ctx context.Context, ev AuditEvent) {
	if err := a.Publish(ctx, NewAuditEnvelope(ev)); err != nil {
		a.log.Warn("audit publish failed", slog.String("key", ev.RoutingKey()), slog.Any("error", err))
	}
}

func (a *AMQPAudit) Publish(ctx context.Context, env AuditEnvelope) error {
	ch, err := a.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	cid := uuid.NewString()
	if env.Meta.CorrelationID != nil {
		cid = *env.Meta.CorrelationID
	}
	err = ch.PublishWithContext(ctx, a.exchange, env.Meta.Type, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     env.Meta.ID,
		CorrelationId: cid,
		Timestamp:     env.Meta.Time,
		Body:          body,
	})
	if err == nil {
		a.log.Info("published", slog.String("key", env.Meta.Type), slog.String("exchange", a.exchange))
	}
	return err
}

func (a *AMQPAudit) Close() error {
	return a.conn.Close()
}
