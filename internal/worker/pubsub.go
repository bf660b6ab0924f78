package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/sitewatch/sitewatch/internal/website"
)

// Job types accepted on the worker subscription.
const (
	JobRunCycle       = "run_cycle"
	JobImportWebsites = "import_websites"
)

// JobMessage is the wire shape of a worker trigger message.
type JobMessage struct {
	JobType string `json:"job_type"`

	// URLs is used by import_websites jobs.
	URLs []string `json:"urls,omitempty"`
}

// PubSubHandler consumes trigger messages and runs the corresponding jobs.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	runner           *Runner
	websites         *website.Service
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Runner           *Runner
	Websites         *website.Service
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub trigger handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// One cycle at a time; a cycle can take minutes when many sites time out.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		runner:           cfg.Runner,
		websites:         cfg.Websites,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing trigger messages until the context is cancelled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub trigger handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	start := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Logger()

	var job JobMessage
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		logger.Error().Err(err).Msg("failed to parse trigger message")
		msg.Nack()
		return
	}

	var err error
	switch job.JobType {
	case JobRunCycle:
		err = h.handleRunCycle(ctx, logger)
	case JobImportWebsites:
		err = h.handleImport(ctx, logger, job.URLs)
	default:
		logger.Warn().Str("job_type", job.JobType).Msg("unknown job type")
		msg.Ack() // ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Str("job_type", job.JobType).Msg("job failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("job_type", job.JobType).
		Dur("duration", time.Since(start)).
		Msg("job completed")
	msg.Ack()
}

func (h *PubSubHandler) handleRunCycle(ctx context.Context, logger zerolog.Logger) error {
	result, err := h.runner.RunOnce(ctx)
	if err != nil {
		return err
	}

	failed := 0
	for _, entry := range result.Outcomes {
		if entry.Status != website.StatusSuccess {
			failed++
		}
	}
	logger.Info().
		Int("processed", result.Processed).
		Int("failed", failed).
		Dur("duration", result.Duration).
		Msg("triggered cycle completed")
	return nil
}

func (h *PubSubHandler) handleImport(ctx context.Context, logger zerolog.Logger, urls []string) error {
	if len(urls) == 0 {
		logger.Warn().Msg("import job carried no URLs")
		return nil
	}

	created, err := h.websites.Import(ctx, urls)
	if err != nil {
		return err
	}
	logger.Info().Int("created", created).Msg("triggered import completed")
	return nil
}
