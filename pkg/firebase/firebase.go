package firebase

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/appcheck"
	"google.golang.org/api/option"
)

// Client wraps the Firebase services the backend uses
type Client struct {
	app *firebase.App
}

// NewClient initializes a Firebase app. An empty credentialsFile falls back to
// application default credentials; an empty projectID to the one they carry.
func NewClient(ctx context.Context, projectID, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	log.Println("[Firebase] App initialized successfully")
	return &Client{app: app}, nil
}

// Firestore returns a Firestore client. Callers close it on shutdown.
func (c *Client) Firestore(ctx context.Context) (*firestore.Client, error) {
	client, err := c.app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get firestore client: %w", err)
	}
	return client, nil
}

// AppCheck returns the App Check token verifier
func (c *Client) AppCheck(ctx context.Context) (*appcheck.Client, error) {
	client, err := c.app.AppCheck(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get app check client: %w", err)
	}
	return client, nil
}
