package repository

import (
	"time"

	"edforge_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// CreateExamAttempt inserts the attempt and the exam claim in one
// transaction. The unique index on exam_claims makes check-then-insert
// atomic: the second of two racing tabs fails here, not client-side.
func (r *AttemptRepository) CreateExamAttempt(attempt *model.Attempt) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		claim := model.ExamClaim{
			UserID:         attempt.UserID,
			ContentBlockID: attempt.ContentBlockID,
		}
		if err := tx.Create(&claim).Error; err != nil {
			return err
		}
		return tx.Create(attempt).Error
	})
}

func (r *AttemptRepository) Create(attempt *model.Attempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) Update(attempt *model.Attempt) error {
	return r.DB.Save(attempt).Error
}

func (r *AttemptRepository) FindByID(id uint) (*model.Attempt, error) {
	var a model.Attempt
	if err := r.DB.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) CountByUserAndBlock(userID, blockID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Attempt{}).
		Where("user_id = ? AND content_block_id = ?", userID, blockID).
		Count(&count).Error
	return count, err
}

// LatestCompleted returns the most recent graded attempt, or nil.
func (r *AttemptRepository) LatestCompleted(userID, blockID uint) (*model.Attempt, error) {
	var a model.Attempt
	err := r.DB.
		Where("user_id = ? AND content_block_id = ? AND status = ?", userID, blockID, model.AttemptGraded).
		Order("attempt_number desc").
		First(&a).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// OpenAttempt returns the user's in-progress attempt for a block, or nil.
func (r *AttemptRepository) OpenAttempt(userID, blockID uint) (*model.Attempt, error) {
	var a model.Attempt
	err := r.DB.
		Where("user_id = ? AND content_block_id = ? AND status = ?", userID, blockID, model.AttemptInProgress).
		First(&a).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) HasExamClaim(userID, blockID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.ExamClaim{}).
		Where("user_id = ? AND content_block_id = ?", userID, blockID).
		Count(&count).Error
	return count > 0, err
}

// ExpiredInProgress lists open attempts whose deadline has passed; the
// sweeper auto-submits them.
func (r *AttemptRepository) ExpiredInProgress(cutoff time.Time, limit int) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.
		Where("status = ? AND deadline_at IS NOT NULL AND deadline_at <= ?", model.AttemptInProgress, cutoff).
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) ListByUserAndBlock(userID, blockID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.
		Where("user_id = ? AND content_block_id = ?", userID, blockID).
		Order("attempt_number asc").
		Find(&attempts).Error
	return attempts, err
}
