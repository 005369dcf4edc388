package model

import (
	"encoding/json"
	"fmt"
)

// Block data is a tagged union keyed by ContentBlock.Type. The engine
// only ever pattern-matches on the quiz/examination/assignment
// variants; display types are carried for completeness.

type BlockData interface {
	blockData()
}

type VideoData struct {
	URL             string `json:"url"`
	DurationSeconds int    `json:"durationSeconds"`
}

type TextData struct {
	Body string `json:"body"`
}

type PDFData struct {
	URL   string `json:"url"`
	Pages int    `json:"pages"`
}

type ImageData struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

type AudioData struct {
	URL             string `json:"url"`
	DurationSeconds int    `json:"durationSeconds"`
}

type CodeData struct {
	Language string `json:"language"`
	Source   string `json:"source"`
}

// QuestionType 题目类型
type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleSelect QuestionType = "multiple_select"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionFillBlank      QuestionType = "fill_blank"
)

// Question belongs to a quiz or examination block. CorrectAnswer is
// raw JSON: a string for single_choice/fill_blank, a string array for
// multiple_select, a bool for true_false.
type Question struct {
	ID            uint            `json:"id"`
	Type          QuestionType    `json:"type"`
	Prompt        string          `json:"prompt"`
	Options       []string        `json:"options,omitempty"`
	CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty"`
	Points        int             `json:"points"`
}

// Stripped returns the question without its correct answer, for
// delivery to students.
func (q Question) Stripped() Question {
	q.CorrectAnswer = nil
	return q
}

// AssessmentData is the shared shape of quiz and examination blocks.
// Zero values defer to the engine config defaults.
type AssessmentData struct {
	Questions        []Question `json:"questions"`
	TimeLimitMinutes int        `json:"timeLimitMinutes,omitempty"`
	PassingThreshold int        `json:"passingThreshold,omitempty"`
	AttemptLimit     int        `json:"attemptLimit,omitempty"` // quizzes only; 0 = unlimited
}

func (d AssessmentData) MaxScore() int {
	total := 0
	for _, q := range d.Questions {
		total += q.Points
	}
	return total
}

type QuizData struct {
	AssessmentData
}

type ExaminationData struct {
	AssessmentData
}

// SubmissionFormat 作业提交形式
type SubmissionFormat string

const (
	FormatText SubmissionFormat = "text"
	FormatFile SubmissionFormat = "file"
	FormatBoth SubmissionFormat = "both"
)

type AssignmentData struct {
	Instructions     string           `json:"instructions"`
	SubmissionFormat SubmissionFormat `json:"submissionFormat"`
	MaxScore         int              `json:"maxScore,omitempty"`
}

func (VideoData) blockData()       {}
func (TextData) blockData()        {}
func (PDFData) blockData()         {}
func (ImageData) blockData()       {}
func (AudioData) blockData()       {}
func (CodeData) blockData()        {}
func (QuizData) blockData()        {}
func (ExaminationData) blockData() {}
func (AssignmentData) blockData()  {}

// DecodeData decodes the block's JSON payload into its typed variant.
func (b *ContentBlock) DecodeData() (BlockData, error) {
	raw := b.Data
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	switch b.Type {
	case BlockVideo:
		var d VideoData
		return d, json.Unmarshal(raw, &d)
	case BlockText:
		var d TextData
		return d, json.Unmarshal(raw, &d)
	case BlockPDF:
		var d PDFData
		return d, json.Unmarshal(raw, &d)
	case BlockImage:
		var d ImageData
		return d, json.Unmarshal(raw, &d)
	case BlockAudio:
		var d AudioData
		return d, json.Unmarshal(raw, &d)
	case BlockCode:
		var d CodeData
		return d, json.Unmarshal(raw, &d)
	case BlockQuiz:
		var d QuizData
		return d, json.Unmarshal(raw, &d)
	case BlockExamination:
		var d ExaminationData
		return d, json.Unmarshal(raw, &d)
	case BlockAssignment:
		var d AssignmentData
		return d, json.Unmarshal(raw, &d)
	}
	return nil, fmt.Errorf("unknown content type %q", b.Type)
}

// AssessmentPayload returns the assessment variant of a quiz or
// examination block, or ok=false for any other type.
func (b *ContentBlock) AssessmentPayload() (AssessmentData, bool) {
	switch b.Type {
	case BlockQuiz:
		var d QuizData
		if err := json.Unmarshal(b.Data, &d); err != nil {
			return AssessmentData{}, false
		}
		return d.AssessmentData, true
	case BlockExamination:
		var d ExaminationData
		if err := json.Unmarshal(b.Data, &d); err != nil {
			return AssessmentData{}, false
		}
		return d.AssessmentData, true
	}
	return AssessmentData{}, false
}

// AssignmentPayload returns the assignment variant, or ok=false.
func (b *ContentBlock) AssignmentPayload() (AssignmentData, bool) {
	if b.Type != BlockAssignment {
		return AssignmentData{}, false
	}
	var d AssignmentData
	if err := json.Unmarshal(b.Data, &d); err != nil {
		return AssignmentData{}, false
	}
	if d.SubmissionFormat == "" {
		d.SubmissionFormat = FormatText
	}
	return d, true
}
