package repository

import (
	"edforge_backend/internal/model"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) Create(sub *model.AssignmentSubmission) error {
	return r.DB.Create(sub).Error
}

func (r *SubmissionRepository) Update(sub *model.AssignmentSubmission) error {
	return r.DB.Save(sub).Error
}

func (r *SubmissionRepository) FindByID(id uint) (*model.AssignmentSubmission, error) {
	var sub model.AssignmentSubmission
	if err := r.DB.First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindByUserAndBlock returns nil when the user has not submitted yet.
func (r *SubmissionRepository) FindByUserAndBlock(userID, blockID uint) (*model.AssignmentSubmission, error) {
	var sub model.AssignmentSubmission
	err := r.DB.Where("user_id = ? AND content_block_id = ?", userID, blockID).First(&sub).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubmissionRepository) ListPendingByBlock(blockID uint) ([]model.AssignmentSubmission, error) {
	var subs []model.AssignmentSubmission
	err := r.DB.
		Where("content_block_id = ? AND status = ?", blockID, model.SubmissionSubmitted).
		Order("submitted_at asc").
		Find(&subs).Error
	return subs, err
}
