package models

import "time"

// DeletedContentBackupModel is an append-only log entry written when a
// content item is removed from the local store. The reconciler consults it
// so a remote restore reuses the original local id; entries are never
// mutated and retention is operator-managed.
type DeletedContentBackupModel struct {
	ID        uint      `json:"-"          gorm:"primaryKey;autoIncrement"`
	LocalID   string    `json:"local_id"   gorm:"type:char(36);index;not null"`
	RemoteID  *int64    `json:"remote_id"  gorm:"index"`
	Slug      string    `json:"slug"       gorm:"index"`
	DeletedAt time.Time `json:"deleted_at" gorm:"index;not null"`
}

func (DeletedContentBackupModel) TableName() string { return "deleted_content_backups" }
