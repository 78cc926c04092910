package models

import "time"

const (
	SyncRunStatusSuccess = "success"
	SyncRunStatusPartial = "partial"
	SyncRunStatusFailed  = "failed"
	SyncRunStatusAborted = "aborted"
)

// SyncRun is the history row written once per sync pass.
type SyncRun struct {
	ID                uint      `gorm:"primary_key" json:"id"`
	RunId             string    `gorm:"uniqueIndex;size:36;not null" json:"run_id"`
	Status            string    `gorm:"size:20;not null" json:"status"`
	Partitions        int       `json:"partitions"`
	PartitionsFailed  int       `json:"partitions_failed"`
	PartitionsAborted int       `json:"partitions_aborted"`
	Records           int       `json:"records"`
	Upserted          int       `json:"upserted"`
	SkippedPrice      int       `json:"skipped_price"`
	Invalid           int       `json:"invalid"`
	WriteFailed       int       `json:"write_failed"`
	Duplicates        int       `json:"duplicates"`
	ListError         string    `gorm:"type:text" json:"list_error"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	DurationMs        int64     `json:"duration_ms"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}
