package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/sitewatch/sitewatch/internal/website"
)

// EventWebsiteUpdated is the type field of published update events.
const EventWebsiteUpdated = "website_updated"

// Event is the wire shape of a website update, mirroring the dashboard
// snapshot so real-time subscribers see the same fields as the REST surface.
type Event struct {
	Type          string                `json:"type"`
	Website       website.Website       `json:"website"`
	Stats         website.Stats         `json:"stats"`
	LatestOutcome *website.CheckOutcome `json:"latest_outcome,omitempty"`
}

// PubSubConfig holds configuration for the Pub/Sub notifier.
type PubSubConfig struct {
	ProjectID string
	TopicName string

	// PublishTimeout bounds how long a single publish may take before it is
	// abandoned. Default: 5 seconds.
	PublishTimeout time.Duration

	Logger zerolog.Logger
}

// PubSubNotifier publishes update events to a Pub/Sub topic. Publishes run
// behind a circuit breaker so a dead broker degrades to logged drops instead
// of adding latency to every check.
type PubSubNotifier struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	breaker   *gobreaker.CircuitBreaker[string]
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewPubSubNotifier creates a Pub/Sub backed notifier.
func NewPubSubNotifier(ctx context.Context, cfg PubSubConfig) (*PubSubNotifier, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "notify-" + cfg.TopicName,
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("notify circuit breaker state changed")
		},
	})

	return &PubSubNotifier{
		client:    client,
		publisher: client.Publisher(cfg.TopicName),
		breaker:   breaker,
		timeout:   timeout,
		logger:    cfg.Logger,
	}, nil
}

// WebsiteUpdated publishes the snapshot as a website_updated event.
func (n *PubSubNotifier) WebsiteUpdated(ctx context.Context, snapshot website.Snapshot) error {
	event := Event{
		Type:          EventWebsiteUpdated,
		Website:       snapshot.Website,
		Stats:         snapshot.Stats,
		LatestOutcome: snapshot.LatestOutcome,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	serverID, err := n.breaker.Execute(func() (string, error) {
		result := n.publisher.Publish(publishCtx, &pubsub.Message{
			Data: data,
			Attributes: map[string]string{
				"event_type": EventWebsiteUpdated,
				"website_id": snapshot.Website.ID,
			},
		})
		return result.Get(publishCtx)
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", EventWebsiteUpdated, err)
	}

	n.logger.Debug().
		Str("website_id", snapshot.Website.ID).
		Str("message_id", serverID).
		Msg("website update published")
	return nil
}

// Close stops the publisher and releases the client.
func (n *PubSubNotifier) Close() error {
	n.publisher.Stop()
	return n.client.Close()
}

// Ensure PubSubNotifier implements Notifier.
var _ Notifier = (*PubSubNotifier)(nil)
