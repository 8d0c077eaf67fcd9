// Package firestore bootstraps the shared Firestore and Firebase Auth clients.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/angelmondragon/aquadrop/pkg/config"
	"github.com/angelmondragon/aquadrop/pkg/logger"
)

var errProjectIDRequired = errors.New("gcp project id is required")

// Client bundles the document store and identity clients for one project.
type Client struct {
	Firestore *firestore.Client
	Auth      *firebaseauth.Client
	ProjectID string
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New initializes Firestore and Firebase Auth. An empty credentials file falls
// back to application default credentials.
func New(ctx context.Context, cfg config.GCPConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	fs, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("creating firebase app: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("creating firebase auth client: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "project_id", projectID), "firestore connected")
	}

	return &Client{Firestore: fs, Auth: authClient, ProjectID: projectID}, nil
}

// Ping performs a cheap read since Firestore has no ping RPC.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.Firestore == nil {
		return errors.New("firestore client is nil")
	}
	iter := c.Firestore.Collections(ctx)
	if _, err := iter.Next(); err != nil && !isDone(err) {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

// Close releases the Firestore connection.
func (c *Client) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
