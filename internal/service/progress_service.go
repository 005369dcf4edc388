package service

import (
	"encoding/json"

	"edforge_backend/internal/model"
	"edforge_backend/internal/repository"
	"edforge_backend/internal/util"
	"edforge_backend/pkg/monitoring"

	"gorm.io/gorm"
)

// ProgressService fronts the progress ledger. All completion writes go
// through it: direct user toggles for display-type blocks, and
// grading-derived completion events for quiz/examination/assignment
// blocks, which can never be toggled by hand.
type ProgressService struct {
	ContentRepo  *repository.ContentRepository
	ProgressRepo *repository.ProgressRepository
	Aggregator   *AggregatorService
	Cache        *ProgressCache
}

func NewProgressService(contentRepo *repository.ContentRepository, progressRepo *repository.ProgressRepository, aggregator *AggregatorService) *ProgressService {
	return &ProgressService{
		ContentRepo:  contentRepo,
		ProgressRepo: progressRepo,
		Aggregator:   aggregator,
		Cache:        NewProgressCache(),
	}
}

type UpdateProgressRequest struct {
	IsCompleted      bool            `json:"isCompleted"`
	TimeSpentSeconds int             `json:"timeSpentSeconds"`
	CompletionData   json.RawMessage `json:"completionData,omitempty"`
}

// UpdateProgress is the user-initiated ledger write. Time is additive:
// the request carries seconds spent since the previous update.
func (s *ProgressService) UpdateProgress(userID, blockID uint, req UpdateProgressRequest) (*model.ProgressRecord, error) {
	if req.TimeSpentSeconds < 0 {
		return nil, util.ErrNegativeTime
	}

	block, err := s.ContentRepo.FindBlock(blockID)
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrBlockNotFound
	}
	if err != nil {
		return nil, err
	}

	// Assessed blocks are completed by the attempt engine or the
	// grading workflow only. Time tracking is still allowed.
	if block.Type.Assessable() || block.Type == model.BlockAssignment {
		existing, ferr := s.ProgressRepo.Find(userID, blockID)
		completedNow := ferr == nil && existing.IsCompleted
		if req.IsCompleted != completedNow {
			return nil, util.ErrAssessedCompletion
		}
		req.IsCompleted = completedNow
		req.CompletionData = nil
	}

	// show the expected outcome immediately; the ledger write settles it
	guess, _ := s.ProgressRepo.Find(userID, blockID)
	if guess == nil {
		guess = &model.ProgressRecord{UserID: userID, ContentBlockID: blockID}
	}
	guess.IsCompleted = req.IsCompleted
	guess.TimeSpentSeconds += req.TimeSpentSeconds
	snap := s.Cache.ApplyOptimistic(*guess)

	record, err := s.ProgressRepo.Upsert(userID, blockID, req.IsCompleted, req.TimeSpentSeconds, req.CompletionData)
	if err != nil {
		s.Cache.Rollback(snap)
		return nil, err
	}
	s.Cache.Reconcile(*record)
	s.Aggregator.InvalidateForBlock(userID, blockID)
	return record, nil
}

// CompleteAssessed marks an assessed block complete on behalf of the
// attempt engine or grading workflow. The only path by which
// quiz/examination/assignment blocks become complete.
func (s *ProgressService) CompleteAssessed(userID, blockID uint, completionData json.RawMessage) (*model.ProgressRecord, error) {
	record, err := s.ProgressRepo.Upsert(userID, blockID, true, 0, completionData)
	if err != nil {
		return nil, err
	}
	s.Cache.Reconcile(*record)
	s.Aggregator.InvalidateForBlock(userID, blockID)
	monitoring.BlockCompletions.Inc()
	return record, nil
}

// BlockProgress reads one block's ledger record, served from the
// in-process mirror when it holds the entry.
func (s *ProgressService) BlockProgress(userID, blockID uint) (*model.ProgressRecord, error) {
	if rec, ok := s.Cache.Get(userID, blockID); ok {
		return &rec, nil
	}
	record, err := s.ProgressRepo.Find(userID, blockID)
	if err == gorm.ErrRecordNotFound {
		// no write yet; report the zero state rather than an error
		return &model.ProgressRecord{UserID: userID, ContentBlockID: blockID}, nil
	}
	if err != nil {
		return nil, err
	}
	s.Cache.Seed([]model.ProgressRecord{*record})
	return record, nil
}

// SessionProgress 单节进度；返回逐块记录与统计
func (s *ProgressService) SessionProgress(userID, sessionID uint) (*model.SessionProgress, error) {
	return s.Aggregator.SessionProgress(userID, sessionID)
}

// SubjectProgress 整课进度（含证书资格）
func (s *ProgressService) SubjectProgress(userID, subjectID uint) (*model.SubjectProgress, error) {
	return s.Aggregator.SubjectProgress(userID, subjectID)
}
