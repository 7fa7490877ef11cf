package models

import (
	"time"
)

// SyncRun is one bulk sync report kept in the remote database.
type SyncRun struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Trigger    string    `json:"trigger" gorm:"type:text;index"`
	StartedAt  time.Time `json:"startedAt" gorm:"type:timestamp with time zone;not null"`
	FinishedAt time.Time `json:"finishedAt" gorm:"type:timestamp with time zone;not null;index"`
	Success    int       `json:"success" gorm:"not null;default:0"`
	Failed     int       `json:"failed" gorm:"not null;default:0"`
	Duplicate  int       `json:"duplicate" gorm:"not null;default:0"`
	Skipped    int       `json:"skipped" gorm:"not null;default:0"`
	Report     string    `json:"report" gorm:"type:jsonb"`
	CDate      time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
