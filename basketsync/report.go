package basketsync

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/areabasket_sync/models"
	"github.com/mmdatafocus/areabasket_sync/utils"
)

// RunRecorder keeps the history of sync passes.
type RunRecorder interface {
	RecordSyncRun(ctx context.Context, run *models.SyncRun) error
}

func reportObjectName(s Summary) string {
	return fmt.Sprintf("areabasket-sync/%s/%s.json", s.StartedAt.UTC().Format("2006-01-02"), s.RunId)
}

// WriteReport uploads the summary as an indented JSON object to bucket and
// returns the object name.
func WriteReport(ctx context.Context, bucket string, s Summary) (string, error) {
	data, err := utils.MarshalIndented(s)
	if err != nil {
		return "", err
	}
	name := reportObjectName(s)
	if err := utils.UploadBytesToGCS(ctx, bucket, name, data, "application/json"); err != nil {
		return "", fmt.Errorf("upload run report %s: %w", name, err)
	}
	return name, nil
}
