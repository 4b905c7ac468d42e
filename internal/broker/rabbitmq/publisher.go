// Package rabbitmq publishes order lifecycle events to a topic exchange for
// the kitchen and notification consumers.
package rabbitmq

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xenking/dailymenu/internal/domain/order"
)

// DefaultExchange is the topic exchange order events go to.
const DefaultExchange = "orders_topic"

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

var _ order.Publisher = (*Publisher)(nil)

// Publisher sends order events as persistent JSON messages. Routing keys are
// "<event type>.<status>", for example "order.placed.pending".
type Publisher struct {
	conn     *amqp.Connection
	exchange string

	mu sync.Mutex // amqp channels are not safe for concurrent publishing
	ch channel
}

// Dial connects to url and declares exchange as a durable topic exchange.
func Dial(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %q", exchange)
	}

	return &Publisher{conn: conn, exchange: exchange, ch: ch}, nil
}

// Publish implements order.Publisher.
func (p *Publisher) Publish(ctx context.Context, e order.Event) error {
	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.OccurredAt.UTC(),
		ContentType:  "application/json",
		Type:         string(e.Type),
		MessageId:    e.OrderID + ":" + string(e.Status),
		Body:         EncodeEvent(e),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(e), false, false, msg); err != nil {
		return errors.Wrapf(err, "publish %s", e.Type)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			return errors.Wrap(err, "close channel")
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return errors.Wrap(err, "close connection")
		}
	}
	return nil
}

// RoutingKey returns the topic routing key of e.
func RoutingKey(e order.Event) string {
	return string(e.Type) + "." + strings.ToLower(string(e.Status))
}

// EncodeEvent renders e as a compact JSON object.
func EncodeEvent(e order.Event) []byte {
	var enc jx.Encoder
	enc.Obj(func(enc *jx.Encoder) {
		enc.Field("type", func(enc *jx.Encoder) { enc.Str(string(e.Type)) })
		enc.Field("orderId", func(enc *jx.Encoder) { enc.Str(e.OrderID) })
		enc.Field("orderNumber", func(enc *jx.Encoder) { enc.Int64(e.OrderNumber) })
		enc.Field("status", func(enc *jx.Encoder) { enc.Str(string(e.Status)) })
		if e.PreviousStatus != "" {
			enc.Field("previousStatus", func(enc *jx.Encoder) { enc.Str(string(e.PreviousStatus)) })
		}
		enc.Field("total", func(enc *jx.Encoder) { enc.Str(e.Total.StringFixed(2)) })
		enc.Field("location", func(enc *jx.Encoder) { enc.Str(e.Location) })
		enc.Field("manual", func(enc *jx.Encoder) { enc.Bool(e.Manual) })
		enc.Field("occurredAt", func(enc *jx.Encoder) { enc.Str(e.OccurredAt.UTC().Format(time.RFC3339Nano)) })
	})
	return enc.Bytes()
}
