package model

import "encoding/json"

// ContentType 内容块类型
type ContentType string

const (
	BlockVideo       ContentType = "video"
	BlockText        ContentType = "text"
	BlockPDF         ContentType = "pdf"
	BlockImage       ContentType = "image"
	BlockAudio       ContentType = "audio"
	BlockCode        ContentType = "code"
	BlockQuiz        ContentType = "quiz"
	BlockAssignment  ContentType = "assignment"
	BlockExamination ContentType = "examination"
)

// Assessable reports whether the attempt engine handles this type.
func (t ContentType) Assessable() bool {
	return t == BlockQuiz || t == BlockExamination
}

// swagger:model Subject
type Subject struct {
	BaseModel
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	IsPublished bool   `gorm:"default:false" json:"isPublished"`
}

func (Subject) TableName() string {
	return "subjects"
}

// swagger:model Lesson
type Lesson struct {
	BaseModel
	SubjectID uint   `gorm:"index;type:bigint unsigned" json:"subjectId"`
	Title     string `gorm:"size:255;not null" json:"title"`
	Order     int    `gorm:"default:0" json:"order"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// swagger:model Session
type Session struct {
	BaseModel
	LessonID uint   `gorm:"index;type:bigint unsigned" json:"lessonId"`
	Title    string `gorm:"size:255;not null" json:"title"`
	Order    int    `gorm:"default:0" json:"order"`
}

func (Session) TableName() string {
	return "sessions"
}

// ContentBlock is the atomic unit of course content. Blocks are owned
// by the hierarchy editors and read-only from the engine's point of
// view; Data is a JSON payload whose shape depends on Type.
// swagger:model ContentBlock
type ContentBlock struct {
	BaseModel
	SessionID        uint            `gorm:"index;type:bigint unsigned" json:"sessionId"`
	Type             ContentType     `gorm:"size:20;not null" json:"type"`
	Title            string          `gorm:"size:255;not null" json:"title"`
	Order            int             `gorm:"default:0" json:"order"`
	// no gorm default: a zero-valued field with a default tag is
	// omitted on insert, which would persist optional blocks as required
	IsRequired       bool            `json:"isRequired"`
	EstimatedMinutes int             `gorm:"default:0" json:"estimatedMinutes"`
	Data             json.RawMessage `gorm:"type:json" json:"data,omitempty"`
}

func (ContentBlock) TableName() string {
	return "content_blocks"
}
