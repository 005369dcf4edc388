package model

import (
	"encoding/json"
	"time"
)

// AttemptStatus 尝试状态机：in_progress → submitted → graded
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptGraded     AttemptStatus = "graded"
)

// Attempt is one scored pass through a quiz or examination. Rows with
// a CompletedAt are immutable. AttemptNumber starts at 1 per
// (user, block).
// swagger:model Attempt
type Attempt struct {
	BaseModel
	UserID           uint            `gorm:"index:idx_user_block_no,unique;type:bigint unsigned" json:"userId"`
	ContentBlockID   uint            `gorm:"index:idx_user_block_no,unique;type:bigint unsigned" json:"contentBlockId"`
	AttemptNumber    int             `gorm:"index:idx_user_block_no,unique" json:"attemptNumber"`
	BlockType        ContentType     `gorm:"size:20" json:"blockType"`
	Status           AttemptStatus   `gorm:"size:20;default:'in_progress'" json:"status"`
	Answers          json.RawMessage `gorm:"type:json" json:"answers,omitempty"`
	Score            int             `json:"score"`
	MaxScore         int             `json:"maxScore"`
	Percentage       int             `json:"percentage"`
	IsPassed         bool            `gorm:"default:false" json:"isPassed"`
	TimeSpentSeconds int             `json:"timeSpentSeconds"`
	AutoSubmitted    bool            `gorm:"default:false" json:"autoSubmitted"`
	StartedAt        time.Time       `json:"startedAt"`
	DeadlineAt       *time.Time      `json:"deadlineAt,omitempty"` // nil = unbounded
	CompletedAt      *time.Time      `json:"completedAt,omitempty"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// AnswerMap decodes the recorded answers, keyed by question ID.
func (a *Attempt) AnswerMap() map[uint]json.RawMessage {
	answers := make(map[uint]json.RawMessage)
	if len(a.Answers) > 0 {
		json.Unmarshal(a.Answers, &answers)
	}
	return answers
}

// ExamClaim enforces the one-attempt-per-examination policy at the
// store: the claim row is inserted in the same transaction as the
// attempt, so a racing second tab fails on the unique index rather
// than on a stale check.
type ExamClaim struct {
	BaseModel
	UserID         uint `gorm:"index:idx_exam_claim,unique;type:bigint unsigned" json:"userId"`
	ContentBlockID uint `gorm:"index:idx_exam_claim,unique;type:bigint unsigned" json:"contentBlockId"`
}

func (ExamClaim) TableName() string {
	return "exam_claims"
}
