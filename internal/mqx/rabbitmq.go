// Package mqx publishes collection events to RabbitMQ.
package mqx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/lo"
)

// Publisher sends a message to a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close() error
}

// EventPublisher publishes a collection event with its envelope mapped onto
// the transport's own message properties.
type EventPublisher interface {
	PublishEvent(ctx context.Context, evt Event) error
}

// RabbitPublisher publishes persistent JSON messages to a topic exchange.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewRabbitPublisher(url string, exchange string) (*RabbitPublisher, error) {
	exchange = lo.Ternary(exchange != "", exchange, "cardvault.events")
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	return p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    time.Now(),
		DeliveryMode: amqp.Persistent,
	})
}

// PublishEvent routes evt by its type. Consumers can filter on the AMQP type,
// message id and the owner/kind headers without decoding the body.
func (p *RabbitPublisher) PublishEvent(ctx context.Context, evt Event) error {
	msg, err := eventMessage(evt)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, evt.Type, false, false, msg)
}

func eventMessage(evt Event) (amqp.Publishing, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode event %s: %w", evt.Type, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.ID.String(),
		Type:         evt.Type,
		AppId:        "cardvault-api",
		Timestamp:    evt.At,
		Headers: amqp.Table{
			"owner_id": evt.OwnerID.String(),
			"kind":     evt.Kind,
		},
		Body: body,
	}, nil
}

func (p *RabbitPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
