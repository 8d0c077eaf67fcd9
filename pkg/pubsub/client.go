// Package pubsub publishes order events to a single Pub/Sub topic.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/aquadrop/pkg/config"
	"github.com/angelmondragon/aquadrop/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errTopicRequired     = errors.New("pubsub orders topic is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// Event is one message. Events sharing a Key are delivered in publish order
// when ordering is enabled.
type Event struct {
	Type    string
	Key     string
	Payload any
}

type Client struct {
	client  *pubsub.Client
	topic   string
	ordered bool
	orders  *pubsub.Publisher
	logg    *logger.Logger
	now     func() time.Time
}

// NewClient connects and verifies the orders topic exists.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}
	topic := topicResourceName(gcp.ProjectID, cfg.OrdersTopic)
	if topic == "" {
		return nil, errTopicRequired
	}
	if logg == nil {
		logg = logger.Nop()
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{client: psClient, topic: topic, ordered: cfg.Ordered, logg: logg, now: time.Now}
	if err := c.Ping(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	c.orders = psClient.Publisher(topic)
	c.orders.EnableMessageOrdering = cfg.Ordered

	logg.Info(logg.WithFields(ctx, map[string]any{"topic": topic, "ordered": cfg.Ordered}), "pubsub client initialized")
	return c, nil
}

// Publish marshals the payload and blocks until the server acknowledges it.
func (c *Client) Publish(ctx context.Context, ev Event) (string, error) {
	if c == nil || c.orders == nil {
		return "", errNotInitialized
	}
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", ev.Type, err)
	}

	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_id":    uuid.NewString(),
			"event_type":  ev.Type,
			"occurred_at": c.now().UTC().Format(time.RFC3339Nano),
		},
	}
	if c.ordered {
		msg.OrderingKey = ev.Key
	}

	id, err := c.orders.Publish(ctx, msg).Get(ctx)
	if err != nil {
		if msg.OrderingKey != "" {
			// A failed ordered publish pauses the key until resumed.
			c.orders.ResumePublish(msg.OrderingKey)
		}
		return "", fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return id, nil
}

// Ping checks the topic still exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: c.topic})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("topic %q does not exist", c.topic)
		}
		return fmt.Errorf("checking topic %q: %w", c.topic, err)
	}
	return nil
}

// Close flushes pending publishes and releases the client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if c.orders != nil {
		c.orders.Stop()
	}
	return c.client.Close()
}

func topicResourceName(projectID, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/topics/") {
		return n
	}
	return fmt.Sprintf("projects/%s/topics/%s", strings.TrimSpace(projectID), n)
}
