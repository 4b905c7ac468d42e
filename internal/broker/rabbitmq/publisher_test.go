package rabbitmq

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/dailymenu/internal/domain/order"
)

// --- Mock implementations ---

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

// --- Helpers ---

func testEvent() order.Event {
	return order.Event{
		Type:           order.EventStatusChanged,
		OrderID:        "o-1",
		OrderNumber:    1001,
		Status:         order.StatusConfirm,
		PreviousStatus: order.StatusPending,
		Total:          decimal.RequireFromString("700.5"),
		Location:       "Main Hall",
		OccurredAt:     time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC),
	}
}

// --- Tests ---

func TestEncodeEvent(t *testing.T) {
	got := map[string]string{}
	var number int64
	var manual bool

	d := jx.DecodeBytes(EncodeEvent(testEvent()))
	require.NoError(t, d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "orderNumber":
			v, err := d.Int64()
			number = v
			return err
		case "manual":
			v, err := d.Bool()
			manual = v
			return err
		default:
			v, err := d.Str()
			got[key] = v
			return err
		}
	}))

	assert.Equal(t, int64(1001), number)
	assert.False(t, manual)
	assert.Equal(t, map[string]string{
		"type":           "order.status_changed",
		"orderId":        "o-1",
		"status":         "Confirm",
		"previousStatus": "Pending",
		"total":          "700.50",
		"location":       "Main Hall",
		"occurredAt":     "2025-06-15T09:30:00Z",
	}, got)
}

func TestEncodeEvent_OmitsEmptyPreviousStatus(t *testing.T) {
	e := testEvent()
	e.Type = order.EventPlaced
	e.PreviousStatus = ""
	assert.NotContains(t, string(EncodeEvent(e)), "previousStatus")
}

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{exchange: DefaultExchange, ch: ch}

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	require.Len(t, ch.sent, 1)

	sent := ch.sent[0]
	assert.Equal(t, DefaultExchange, sent.exchange)
	assert.Equal(t, "order.status_changed.confirm", sent.key)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.JSONEq(t, string(EncodeEvent(testEvent())), string(sent.msg.Body))

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestPublisher_PublishError(t *testing.T) {
	p := &Publisher{exchange: DefaultExchange, ch: &fakeChannel{err: errors.New("channel closed")}}
	require.Error(t, p.Publish(context.Background(), testEvent()))
}
