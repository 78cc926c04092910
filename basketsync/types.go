package basketsync

import (
	"time"

	"github.com/mmdatafocus/areabasket_sync/models"
)

type PartitionOutcome string

const (
	PartitionSynced      PartitionOutcome = "synced"
	PartitionFetchFailed PartitionOutcome = "fetch_failed"
	PartitionJoinFailed  PartitionOutcome = "join_failed"
	PartitionAborted     PartitionOutcome = "aborted"
	// PartitionTimedOut ran past its own deadline while the run was still live.
	PartitionTimedOut PartitionOutcome = "timed_out"
)

type RecordOutcome string

const (
	RecordUpserted     RecordOutcome = "upserted"
	RecordSkippedPrice RecordOutcome = "skipped_price"
	RecordInvalid      RecordOutcome = "invalid"
	RecordWriteFailed  RecordOutcome = "write_failed"
	// RecordDuplicate is a record superseded by a later one with the same key
	// in the same partition.
	RecordDuplicate RecordOutcome = "duplicate"
	// RecordNotWritten was valid but the partition stopped before its write.
	RecordNotWritten RecordOutcome = "not_written"
)

// PartitionResult is the outcome of one hexCode.
type PartitionResult struct {
	HexCode string
	Outcome PartitionOutcome
	Records int
	Counts  map[RecordOutcome]int
	Err     error
}

type PartitionFailure struct {
	HexCode string           `json:"hexCode"`
	Outcome PartitionOutcome `json:"outcome"`
	Error   string           `json:"error,omitempty"`
}

// Summary aggregates every partition and record outcome of one pass.
type Summary struct {
	RunId       string                   `json:"runId"`
	StartedAt   time.Time                `json:"startedAt"`
	FinishedAt  time.Time                `json:"finishedAt"`
	Partitions  int                      `json:"partitions"`
	ByPartition map[PartitionOutcome]int `json:"byPartition"`
	Records     int                      `json:"records"`
	ByRecord    map[RecordOutcome]int    `json:"byRecord"`
	ListError   string                   `json:"listError,omitempty"`
	Failures    []PartitionFailure       `json:"failures,omitempty"`
}

func newSummary(runId string, startedAt time.Time) Summary {
	return Summary{
		RunId:       runId,
		StartedAt:   startedAt,
		ByPartition: map[PartitionOutcome]int{},
		ByRecord:    map[RecordOutcome]int{},
	}
}

func (s *Summary) add(res PartitionResult) {
	s.ByPartition[res.Outcome]++
	s.Records += res.Records
	for outcome, n := range res.Counts {
		s.ByRecord[outcome] += n
	}
	if res.Outcome != PartitionSynced {
		failure := PartitionFailure{HexCode: res.HexCode, Outcome: res.Outcome}
		if res.Err != nil {
			failure.Error = res.Err.Error()
		}
		s.Failures = append(s.Failures, failure)
	}
}

func (s Summary) Upserted() int {
	return s.ByRecord[RecordUpserted]
}

func (s Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// FailedPartitions counts partitions that finished without syncing while the
// run itself was still live.
func (s Summary) FailedPartitions() int {
	return s.ByPartition[PartitionFetchFailed] + s.ByPartition[PartitionJoinFailed] + s.ByPartition[PartitionTimedOut]
}

// Status folds the outcomes into one of the sync run statuses. Aborted is
// reserved for runs stopped by a signal or the run deadline.
func (s Summary) Status() string {
	failed := s.FailedPartitions()
	switch {
	case s.ListError != "":
		return models.SyncRunStatusFailed
	case s.ByPartition[PartitionAborted] > 0:
		return models.SyncRunStatusAborted
	case s.Partitions > 0 && failed == s.Partitions:
		return models.SyncRunStatusFailed
	case failed > 0 || s.ByRecord[RecordInvalid] > 0 || s.ByRecord[RecordWriteFailed] > 0:
		return models.SyncRunStatusPartial
	}
	return models.SyncRunStatusSuccess
}

// SyncRun converts the summary into the history row.
func (s Summary) SyncRun() *models.SyncRun {
	return &models.SyncRun{
		RunId:             s.RunId,
		Status:            s.Status(),
		Partitions:        s.Partitions,
		PartitionsFailed:  s.FailedPartitions(),
		PartitionsAborted: s.ByPartition[PartitionAborted],
		Records:           s.Records,
		Upserted:          s.ByRecord[RecordUpserted],
		SkippedPrice:      s.ByRecord[RecordSkippedPrice],
		Invalid:           s.ByRecord[RecordInvalid],
		WriteFailed:       s.ByRecord[RecordWriteFailed],
		Duplicates:        s.ByRecord[RecordDuplicate],
		ListError:         s.ListError,
		StartedAt:         s.StartedAt,
		FinishedAt:        s.FinishedAt,
		DurationMs:        s.Duration().Milliseconds(),
	}
}
