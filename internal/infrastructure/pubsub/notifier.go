// Package pubsub entrega los eventos del outbox a Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/jhoicas/supplychain-core/internal/application/ports"
	"github.com/jhoicas/supplychain-core/internal/domain/entity"
)

var (
	_ ports.Notifier = (*Notifier)(nil)
	_ ports.Notifier = (*LogNotifier)(nil)
)

// Notifier publica cada evento en el tópico "<prefijo>-<tópico>" (los puntos pasan a guiones).
type Notifier struct {
	client *pubsub.Client
	prefix string

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewNotifier crea el cliente. credentialsFile vacío usa Application Default Credentials.
func NewNotifier(ctx context.Context, projectID, prefix, credentialsFile string) (*Notifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	return &Notifier{client: client, prefix: prefix, topics: make(map[string]*pubsub.Topic)}, nil
}

// TopicName nombre del tópico Pub/Sub para un tópico del outbox.
func TopicName(prefix, topic string) string {
	name := strings.ReplaceAll(topic, ".", "-")
	if prefix == "" {
		return name
	}
	return prefix + "-" + name
}

// Publish envía el evento y espera la confirmación del servidor.
func (n *Notifier) Publish(ctx context.Context, ev *entity.OutboxEvent) error {
	res := n.topic(ev.Topic).Publish(ctx, &pubsub.Message{
		Data: ev.Payload,
		Attributes: map[string]string{
			"event_id":     ev.ID,
			"topic":        ev.Topic,
			"aggregate_id": ev.AggregateID,
		},
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Topic, err)
	}
	return nil
}

func (n *Notifier) topic(name string) *pubsub.Topic {
	n.mu.Lock()
	defer n.mu.Unlock()
	if t, ok := n.topics[name]; ok {
		return t
	}
	t := n.client.Topic(TopicName(n.prefix, name))
	n.topics[name] = t
	return t
}

// Close detiene los tópicos y cierra el cliente.
func (n *Notifier) Close() error {
	n.mu.Lock()
	for _, t := range n.topics {
		t.Stop()
	}
	n.mu.Unlock()
	return n.client.Close()
}

// LogNotifier registra los eventos en el log. Se usa cuando no hay Pub/Sub configurado.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) Publish(_ context.Context, ev *entity.OutboxEvent) error {
	n.log.Info().
		Str("event_id", ev.ID).
		Str("topic", ev.Topic).
		Str("aggregate_id", ev.AggregateID).
		RawJSON("payload", ev.Payload).
		Msg("evento")
	return nil
}
