// Package queue publishes domain events to RabbitMQ. Publishing is best
// effort: callers log failures and never fail a committed request over them.
package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// AMQPPublisher keeps one connection and opens a channel per publish.
// Each routing key maps to a durable queue of the same name on the default
// exchange.
type AMQPPublisher struct {
	url string
	log zerolog.Logger

	mu       sync.Mutex
	conn     *amqp.Connection
	declared map[string]bool
}

func NewAMQPPublisher(url string, log zerolog.Logger) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, log: log, declared: map[string]bool{}}
	if _, err := p.connection(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) connection() (*amqp.Connection, error) {
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, err
	}
	p.conn = conn
	p.declared = map[string]bool{}
	return conn, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	conn, err := p.connection()
	if err != nil {
		p.log.Error().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		p.log.Error().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if !p.declared[routingKey] {
		if _, err := ch.QueueDeclare(routingKey, true, false, false, false, nil); err != nil {
			p.log.Error().Err(err).Str("queue", routingKey).Msg("rabbitmq: queue declare failed")
			return err
		}
		p.declared[routingKey] = true
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return ch.PublishWithContext(pubCtx, "", routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}

// NopPublisher drops events. Used when AMQP_URL is unset.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close() error                               { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
	Err    error
}

type Recorded struct {
	RoutingKey string
	Event      any
}

func (r *Recorder) Publish(_ context.Context, routingKey string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Events = append(r.Events, Recorded{RoutingKey: routingKey, Event: event})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Keys returns the routing keys published so far, in order.
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.RoutingKey
	}
	return out
}
