package models

import (
	"time"

	"gorm.io/gorm"
)

// TokenBalance holds the remaining token budget for a single user.
// A soft-deleted row marks a deleted account; balance checks report
// that case separately so callers can distinguish it from a zero balance.
type TokenBalance struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	UserID    string         `gorm:"type:varchar(128);uniqueIndex;not null" json:"user_id"`
	Balance   int64          `gorm:"not null;default:0" json:"balance"`
}

// Action is a single metered tool invocation recorded by the ledger.
// ActionID is generated once per logical invocation and reused across
// retry attempts of the same charge, which is what makes consumption
// idempotent: a replayed ActionID never deducts twice.
type Action struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	ActionID   string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"action_id"`
	UserID     string    `gorm:"type:varchar(128);index;not null" json:"user_id"`
	Cost       int64     `gorm:"not null" json:"cost"`
	ServerName string    `gorm:"type:varchar(128)" json:"server_name"`
	ToolName   string    `gorm:"type:varchar(255);index;not null" json:"tool_name"`
	Input      string    `gorm:"type:text" json:"input"`
	Output     string    `gorm:"type:text" json:"output"`
	Success    bool      `gorm:"index" json:"success"`
}
