package pubsub

import (
	"context"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// Publisher sends messages to a single Pub/Sub topic
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPublisher connects to projectID and binds topicName. A full resource
// name (projects/p/topics/t) is reduced to its short name.
func NewPublisher(ctx context.Context, projectID, topicName, credentialsFile string) (*Publisher, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	name := ShortTopicName(topicName)
	log.Printf("[PubSub] Publishing to topic: %s", name)
	return &Publisher{
		client: client,
		topic:  client.Topic(name),
	}, nil
}

// Publish sends one message and waits for the server to acknowledge it
func (p *Publisher) Publish(ctx context.Context, attrs map[string]string, data []byte) error {
	res := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	id, err := res.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	log.Printf("[PubSub] Published message %s", id)
	return nil
}

// Close flushes pending messages and releases the client
func (p *Publisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

// ShortTopicName strips a projects/<p>/topics/ prefix
func ShortTopicName(name string) string {
	if parts := strings.Split(name, "/"); len(parts) > 1 {
		return parts[len(parts)-1]
	}
	return name
}
