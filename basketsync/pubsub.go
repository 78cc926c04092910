package basketsync

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"
)

// SyncPubSubPayload is the message published after every pass.
type SyncPubSubPayload struct {
	RunId      string `json:"runId"`
	Status     string `json:"status"`
	Partitions int    `json:"partitions"`
	Records    int    `json:"records"`
	Upserted   int    `json:"upserted"`
	DurationMs int64  `json:"durationMs"`
}

func newSyncPubSubPayload(s Summary) SyncPubSubPayload {
	return SyncPubSubPayload{
		RunId:      s.RunId,
		Status:     s.Status(),
		Partitions: s.Partitions,
		Records:    s.Records,
		Upserted:   s.Upserted(),
		DurationMs: s.Duration().Milliseconds(),
	}
}

// PublishSummary announces a finished pass on topicName. A nil client is a no-op.
func PublishSummary(ctx context.Context, client *pubsub.Client, topicName string, s Summary) error {
	if client == nil || topicName == "" {
		return nil
	}
	topic := client.Topic(topicName)
	defer topic.Stop()

	data, _ := json.Marshal(newSyncPubSubPayload(s))
	res := topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"run_id": s.RunId,
			"status": s.Status(),
		},
	})
	_, err := res.Get(ctx)
	return err
}
