package model

import (
	"encoding/json"
	"time"
)

// ProgressRecord 记录用户对单个内容块的完成状态
// One row per (user, block); upserted on every completion-state
// change, never hard-deleted. Unmarking keeps the row and its
// completion data for history.
// swagger:model ProgressRecord
type ProgressRecord struct {
	BaseModel
	UserID           uint            `gorm:"index:idx_user_block,unique;type:bigint unsigned" json:"userId"`
	ContentBlockID   uint            `gorm:"index:idx_user_block,unique;type:bigint unsigned" json:"contentBlockId"`
	IsCompleted      bool            `gorm:"default:false" json:"isCompleted"`
	TimeSpentSeconds int             `gorm:"default:0" json:"timeSpentSeconds"`
	CompletionData   json.RawMessage `gorm:"type:json" json:"completionData,omitempty"`
	CompletedAt      *time.Time      `json:"completedAt,omitempty"`
}

func (ProgressRecord) TableName() string {
	return "progress_records"
}
