package audit

import (
	"context"
	"encoding/json"

	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"

	"github.com/phamquangkhanh2999/order-api/internal/dal/rabbitmq"
	"github.com/phamquangkhanh2999/order-api/internal/service/models/auditlog"
)

// publisher is satisfied by *amqp.Channel.
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AuditRabbitMQRepository publishes order events to a RabbitMQ queue.
type AuditRabbitMQRepository struct {
	publisher publisher
	queue     string
}

// NewAuditRabbitMQRepository declares the events queue and returns a repository publishing to it.
func NewAuditRabbitMQRepository(client *rabbitmq.Client, queueName string) *AuditRabbitMQRepository {
	queue, err := client.DeclareQueue(rabbitmq.QueueConfig{
		Name:    queueName,
		Durable: true,
	})
	if err != nil {
		panic(err)
	}

	return &AuditRabbitMQRepository{
		publisher: client.Channel(),
		queue:     queue.Name,
	}
}

// LogOrderEvents publishes each event as a persistent JSON message. The request's cancellation
// and deadline are dropped: amqp Publish takes no context, so the group context only skips events
// that have not started publishing once another publish failed.
func (r *AuditRabbitMQRepository) LogOrderEvents(ctx context.Context, events []auditlog.OrderEvent) error {
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(3)

	for _, event := range events {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			body, err := json.Marshal(event)
			if err != nil {
				return err
			}

			return r.publisher.Publish(
				"",
				r.queue,
				false,
				false,
				amqp.Publishing{
					ContentType:  "application/json",
					DeliveryMode: amqp.Persistent,
					Type:         string(event.Type),
					MessageId:    event.OrderID.String(),
					Timestamp:    event.OccurredAt,
					Body:         body,
				},
			)
		})
	}

	return g.Wait()
}
