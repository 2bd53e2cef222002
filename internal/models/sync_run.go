package models

import "time"

type SyncRunStatus string

const (
	SyncStatusProcessing SyncRunStatus = "processing" // Pass in flight
	SyncStatusCompleted  SyncRunStatus = "completed"  // Delete phase and all upserts applied
	SyncStatusFailed     SyncRunStatus = "failed"     // Aborted, mirror may be partially updated
)

type SyncTrigger string

const (
	TriggerCallback SyncTrigger = "callback" // After a fresh OAuth callback
	TriggerManual   SyncTrigger = "manual"   // "Sync Now" from the web view
	TriggerCLI      SyncTrigger = "cli"      // label-mirror sync
)

// SyncRun records one synchronization pass of a label
type SyncRun struct {
	ID           string        `gorm:"column:id;primaryKey" json:"id"`
	LabelID      string        `gorm:"column:label_id;index" json:"labelId"`
	Trigger      SyncTrigger   `gorm:"column:triggered_by" json:"trigger"`
	Status       SyncRunStatus `gorm:"column:status;index" json:"status"`
	NewCount     int           `gorm:"column:new_count" json:"newCount"`
	DeletedCount int           `gorm:"column:deleted_count" json:"deletedCount"`
	FetchedCount int           `gorm:"column:fetched_count" json:"fetchedCount"`
	LastError    *string       `gorm:"column:last_error" json:"lastError,omitempty"`
	CreatedAt    time.Time     `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time     `gorm:"column:updated_at" json:"updatedAt"`
	ProcessedAt  *time.Time    `gorm:"column:processed_at" json:"processedAt,omitempty"`
}

// TableName specifies the table name for GORM
func (SyncRun) TableName() string {
	return "sync_run"
}
