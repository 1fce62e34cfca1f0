package config

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// AuditMessage is the Pub/Sub payload for one floor ledger entry.
type AuditMessage struct {
	ID            int       `json:"id"`
	FactoryId     string    `json:"factory_id"`
	OrderId       int       `json:"order_id"`
	ArticleId     int       `json:"article_id"`
	Kind          string    `json:"kind"`
	FromFloor     string    `json:"from_floor"`
	ToFloor       string    `json:"to_floor"`
	Quantity      int       `json:"quantity"`
	Actor         string    `json:"actor"`
	Remarks       string    `json:"remarks"`
	OccurredAt    time.Time `json:"occurred_at"`
	CorrelationId string    `json:"correlation_id"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return os.Getenv("GCP_PROJECT")
}

// getPubSubClient initializes the shared client once; concurrent callers that lose the race close theirs.
func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	if pubsubClient != nil {
		c := pubsubClient
		pubsubClientMu.Unlock()
		return c, nil
	}
	pubsubClientMu.Unlock()

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	var (
		c   *pubsub.Client
		err error
	)
	if credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON"); credJSON != "" {
		c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
	} else {
		// Application Default Credentials.
		c, err = pubsub.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, err
	}

	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if pubsubClient == nil {
		pubsubClient = c
		log.Printf("pubsub client ready (project_id=%s)", projectID)
	} else {
		_ = c.Close()
	}
	return pubsubClient, nil
}

// PublishAuditEvent publishes one ledger entry and returns the server-assigned message id.
func PublishAuditEvent(ctx context.Context, msg AuditMessage) (string, error) {
	topicName := os.Getenv("PUBSUB_AUDIT_TOPIC")
	if topicName == "" {
		return "", errors.New("PUBSUB_AUDIT_TOPIC is required")
	}
	client, err := getPubSubClient(ctx)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	result := client.Topic(topicName).Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"kind":       msg.Kind,
			"factory_id": msg.FactoryId,
		},
	})
	return result.Get(ctx)
}
