package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"edforge_backend/internal/config"
	"edforge_backend/internal/model"
	"edforge_backend/internal/repository"
	"edforge_backend/internal/util"
	"edforge_backend/pkg/monitoring"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmissionService runs the assignment lifecycle: student submission
// against the block's configured format, then single-shot staff
// grading with pass/fail derived from the percentage threshold.
type SubmissionService struct {
	ContentRepo    *repository.ContentRepository
	SubmissionRepo *repository.SubmissionRepository
	Storage        StorageProvider
	Progress       *ProgressService
	Engine         config.EngineConfig
}

func NewSubmissionService(contentRepo *repository.ContentRepository, submissionRepo *repository.SubmissionRepository, storage StorageProvider, progress *ProgressService, engine config.EngineConfig) *SubmissionService {
	return &SubmissionService{
		ContentRepo:    contentRepo,
		SubmissionRepo: submissionRepo,
		Storage:        storage,
		Progress:       progress,
		Engine:         engine,
	}
}

// SubmissionFile is one uploaded attachment.
type SubmissionFile struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Submit validates the payload against the block's submission format,
// uploads attachments and records the submission. Resubmission is
// rejected until a resubmission flow exists.
func (s *SubmissionService) Submit(ctx context.Context, userID, blockID uint, text string, files []SubmissionFile) (*model.AssignmentSubmission, error) {
	block, err := s.ContentRepo.FindBlock(blockID)
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrBlockNotFound
	}
	if err != nil {
		return nil, err
	}
	data, ok := block.AssignmentPayload()
	if !ok {
		return nil, util.ErrNotAssignment
	}

	text = strings.TrimSpace(text)
	switch data.SubmissionFormat {
	case model.FormatText:
		if text == "" {
			return nil, util.Validationf("this assignment requires a text submission")
		}
	case model.FormatFile:
		if len(files) == 0 {
			return nil, util.Validationf("this assignment requires at least one file")
		}
	case model.FormatBoth:
		if text == "" && len(files) == 0 {
			return nil, util.Validationf("submit text, a file, or both")
		}
	}

	existing, err := s.SubmissionRepo.FindByUserAndBlock(userID, blockID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, util.ErrAlreadySubmitted
	}

	var keys []string
	for _, f := range files {
		key := fmt.Sprintf("assignments/%d/%d/%s%s", blockID, userID, uuid.New().String(), filepath.Ext(f.Name))
		if _, err := s.Storage.Upload(ctx, key, f.Reader, f.Size, f.ContentType); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	sub := &model.AssignmentSubmission{
		UserID:         userID,
		ContentBlockID: blockID,
		Text:           text,
		Status:         model.SubmissionSubmitted,
		SubmittedAt:    time.Now(),
	}
	if len(keys) > 0 {
		raw, _ := json.Marshal(keys)
		sub.Files = raw
	}
	if err := s.SubmissionRepo.Create(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

type GradeRequest struct {
	Score        int             `json:"score" binding:"min=0"`
	MaxScore     int             `json:"maxScore" binding:"required,min=1"`
	Feedback     string          `json:"feedback"`
	RubricScores json.RawMessage `json:"rubricScores,omitempty"`
}

// Grade is staff-only and single-shot. A passing grade (≥ threshold,
// default 50%) emits the completion event; a failing grade leaves the
// block incomplete.
func (s *SubmissionService) Grade(graderID uint, graderRole model.UserRole, submissionID uint, req GradeRequest) (*model.AssignmentSubmission, error) {
	if !graderRole.IsStaff() {
		return nil, util.ErrStaffOnly
	}

	sub, err := s.SubmissionRepo.FindByID(submissionID)
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	if sub.Status == model.SubmissionGraded {
		return nil, util.ErrAlreadyGraded
	}
	if req.MaxScore <= 0 {
		return nil, util.Validationf("maxScore must be positive")
	}
	if req.Score < 0 || req.Score > req.MaxScore {
		return nil, util.Validationf("score must be between 0 and %d", req.MaxScore)
	}

	now := time.Now()
	percentage := 100 * float64(req.Score) / float64(req.MaxScore)
	percentage = math.Round(percentage*10) / 10

	sub.GradedBy = &graderID
	sub.GradedAt = &now
	sub.Score = req.Score
	sub.MaxScore = req.MaxScore
	sub.Percentage = percentage
	sub.IsPassed = percentage >= float64(s.Engine.AssignmentPassPercent)
	sub.Feedback = req.Feedback
	sub.RubricScores = req.RubricScores
	sub.Status = model.SubmissionGraded

	if err := s.SubmissionRepo.Update(sub); err != nil {
		return nil, err
	}
	monitoring.SubmissionsGraded.Inc()

	if sub.IsPassed {
		completion, _ := json.Marshal(map[string]interface{}{
			"submissionId": sub.ID,
			"percentage":   sub.Percentage,
		})
		if _, err := s.Progress.CompleteAssessed(sub.UserID, sub.ContentBlockID, completion); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

type SubmissionStatusResponse struct {
	HasSubmitted bool                        `json:"hasSubmitted"`
	Status       model.SubmissionStatus      `json:"status,omitempty"`
	Submission   *model.AssignmentSubmission `json:"submission,omitempty"`
}

// Status reports whether the user has submitted, with the full graded
// detail once grading is done.
func (s *SubmissionService) Status(userID, blockID uint) (*SubmissionStatusResponse, error) {
	sub, err := s.SubmissionRepo.FindByUserAndBlock(userID, blockID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return &SubmissionStatusResponse{HasSubmitted: false}, nil
	}
	resp := &SubmissionStatusResponse{
		HasSubmitted: true,
		Status:       sub.Status,
	}
	if sub.Status == model.SubmissionGraded {
		resp.Submission = sub
	}
	return resp, nil
}
