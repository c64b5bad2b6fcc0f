package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/bazaarlane/bazaarlane-backend/pkg/config"
	"github.com/bazaarlane/bazaarlane-backend/pkg/logger"
)

var errProjectIDRequired = errors.New("gcp project id is required")

// Client publishes domain events to the configured Pub/Sub topics.
type Client struct {
	client    *pubsub.Client
	projectID string
	orders    *pubsub.Publisher
	payouts   *pubsub.Publisher
}

// NewClient creates a Pub/Sub v2 client bound to the order and payout topics.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:    psClient,
		projectID: gcp.ProjectID,
		orders:    psClient.Publisher(strings.TrimSpace(cfg.OrdersTopic)),
		payouts:   psClient.Publisher(strings.TrimSpace(cfg.PayoutsTopic)),
	}

	if logg != nil {
		logg.Info(ctx, "pubsub client initialized")
	}

	return c, nil
}

// PublishOrderEvent emits a message on the order events topic and waits for the server ack.
func (c *Client) PublishOrderEvent(ctx context.Context, data []byte, attrs map[string]string) error {
	return publish(ctx, c.orders, data, attrs)
}

// PublishPayoutEvent emits a message on the payout events topic and waits for the server ack.
func (c *Client) PublishPayoutEvent(ctx context.Context, data []byte, attrs map[string]string) error {
	return publish(ctx, c.payouts, data, attrs)
}

func publish(ctx context.Context, pub *pubsub.Publisher, data []byte, attrs map[string]string) error {
	if pub == nil {
		return errors.New("publisher not configured")
	}
	result := pub.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close flushes pending messages and releases the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if c.orders != nil {
		c.orders.Stop()
	}
	if c.payouts != nil {
		c.payouts.Stop()
	}
	return c.client.Close()
}
