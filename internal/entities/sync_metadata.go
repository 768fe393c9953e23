package entities

import (
	"time"
)

// SyncMetadata is a row of the key-value metadata table.
type SyncMetadata struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SyncMetadata) TableName() string {
	return "sync_metadata"
}

// Known metadata keys
const (
	MetaKeySchemaVersion         = "db_schema_version"
	MetaKeyInitialSetupComplete  = "initial_setup_complete"
	MetaKeyActiveProfileID       = "active_profile_id"
	MetaKeySyncStatus            = "sync_status"
	MetaKeyLastFullSyncCompleted = "last_full_sync_completed_at"
	MetaKeyNextSyncDue           = "next_sync_due_at"
	MetaKeySyncLastOffset        = "sync_last_offset"
	MetaKeySyncWordsCompleted    = "sync_words_completed"
	MetaKeySyncWordsTotal        = "sync_words_total"
	MetaKeySyncErrorMessage      = "sync_error_message"
	MetaKeyLastSyncStartedAt     = "last_sync_started_at"
)

// SchemaVersion is written to MetaKeySchemaVersion on first initialization.
const SchemaVersion = "1"

type SyncStatus string

const (
	SyncStatusNeverSynced SyncStatus = "never_synced"
	SyncStatusIdle        SyncStatus = "idle"
	SyncStatusInProgress  SyncStatus = "in_progress"
	SyncStatusCompleted   SyncStatus = "completed"
	SyncStatusFailed      SyncStatus = "failed"
)
