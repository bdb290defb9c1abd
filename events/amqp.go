package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("publisher closed")

// AMQPPublisher publishes events to a topic exchange, keyed by event kind.
// The channel is reopened on the next publish after the broker closes it.
type AMQPPublisher struct {
	exchange string
	logger   log.Logger

	mtx    sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
}

// NewAMQPPublisher dials url and declares exchange as a durable topic.
func NewAMQPPublisher(url, exchange string, logger log.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	p := &AMQPPublisher{exchange: exchange, logger: logger, conn: conn}
	ch, err := p.channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return p, nil
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p.ch = ch

	closed := ch.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if err := <-closed; err != nil {
			level.Warn(p.logger).Log("msg", "publisher channel closed, reopening on next publish", "err", err)
		}
	}()
	return ch, nil
}

// Publish sends e as persistent JSON.
func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	err = ch.PublishWithContext(ctx, p.exchange, string(e.Kind), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.Time,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Kind, err)
	}
	return nil
}

// Close closes the connection. Later publishes fail with ErrClosed.
func (p *AMQPPublisher) Close() error {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.conn.Close()
}
