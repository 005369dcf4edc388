package model

import (
	"encoding/json"
	"time"
)

// SubmissionStatus 作业生命周期：submitted → graded（终态）
type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
)

// AssignmentSubmission holds one student submission per assignment
// block plus its grading sub-record. Resubmission before grading is
// rejected; grading is single-shot.
// swagger:model AssignmentSubmission
type AssignmentSubmission struct {
	BaseModel
	UserID         uint             `gorm:"index:idx_user_assignment,unique;type:bigint unsigned" json:"userId"`
	ContentBlockID uint             `gorm:"index:idx_user_assignment,unique;type:bigint unsigned" json:"contentBlockId"`
	Text           string           `gorm:"type:text" json:"text,omitempty"`
	Files          json.RawMessage  `gorm:"type:json" json:"files,omitempty"` // []string of storage keys
	Status         SubmissionStatus `gorm:"size:20;default:'submitted'" json:"status"`
	SubmittedAt    time.Time        `json:"submittedAt"`

	// Grading sub-record, set once by staff.
	GradedBy     *uint           `gorm:"type:bigint unsigned" json:"gradedBy,omitempty"`
	GradedAt     *time.Time      `json:"gradedAt,omitempty"`
	Score        int             `json:"score"`
	MaxScore     int             `json:"maxScore"`
	Percentage   float64         `json:"percentage"`
	IsPassed     bool            `gorm:"default:false" json:"isPassed"`
	Feedback     string          `gorm:"type:text" json:"feedback,omitempty"`
	RubricScores json.RawMessage `gorm:"type:json" json:"rubricScores,omitempty"`
}

func (AssignmentSubmission) TableName() string {
	return "assignment_submissions"
}

// FileKeys decodes the stored file reference list.
func (s *AssignmentSubmission) FileKeys() []string {
	var keys []string
	if len(s.Files) > 0 {
		json.Unmarshal(s.Files, &keys)
	}
	return keys
}
