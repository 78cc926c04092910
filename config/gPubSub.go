package config

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// NewPubSubClient returns a Pub/Sub client for run notifications, or nil when
// SYNC_PUBSUB_TOPIC is unset. It uses Application Default Credentials unless
// PUBSUB_CREDENTIALS_JSON is provided.
func NewPubSubClient(ctx context.Context, s Settings, logg *logrus.Logger) (*pubsub.Client, error) {
	if s.PubSubTopic == "" {
		return nil, nil
	}
	if s.PubSubProjectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	var (
		c   *pubsub.Client
		err error
	)
	if s.PubSubCredentialsJSON != "" {
		c, err = pubsub.NewClient(ctx, s.PubSubProjectID, option.WithCredentialsJSON([]byte(s.PubSubCredentialsJSON)))
	} else {
		// Uses Application Default Credentials (Cloud Run service account or GOOGLE_APPLICATION_CREDENTIALS).
		c, err = pubsub.NewClient(ctx, s.PubSubProjectID)
	}
	if err != nil {
		return nil, fmt.Errorf("init pubsub client (project_id=%s): %w", s.PubSubProjectID, err)
	}
	logg.WithFields(logrus.Fields{"project_id": s.PubSubProjectID, "topic": s.PubSubTopic}).Info("pubsub client ready")
	return c, nil
}
