package repository

import (
	"edforge_backend/internal/model"

	"gorm.io/gorm"
)

// ContentRepository reads the course hierarchy. The hierarchy is
// maintained by the content editors; the engine never writes it.
type ContentRepository struct {
	DB *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

func (r *ContentRepository) FindBlock(blockID uint) (*model.ContentBlock, error) {
	var block model.ContentBlock
	if err := r.DB.First(&block, blockID).Error; err != nil {
		return nil, err
	}
	return &block, nil
}

func (r *ContentRepository) BlocksBySession(sessionID uint) ([]model.ContentBlock, error) {
	var blocks []model.ContentBlock
	err := r.DB.Where("session_id = ?", sessionID).Order("`order` asc").Find(&blocks).Error
	return blocks, err
}

// SessionsBySubject walks subject → lessons → sessions in order.
func (r *ContentRepository) SessionsBySubject(subjectID uint) ([]model.Session, error) {
	var sessions []model.Session
	err := r.DB.
		Joins("JOIN lessons ON lessons.id = sessions.lesson_id").
		Where("lessons.subject_id = ?", subjectID).
		Order("lessons.`order` asc, sessions.`order` asc").
		Find(&sessions).Error
	return sessions, err
}

func (r *ContentRepository) BlocksBySubject(subjectID uint) ([]model.ContentBlock, error) {
	var blocks []model.ContentBlock
	err := r.DB.
		Joins("JOIN sessions ON sessions.id = content_blocks.session_id").
		Joins("JOIN lessons ON lessons.id = sessions.lesson_id").
		Where("lessons.subject_id = ?", subjectID).
		Order("lessons.`order` asc, sessions.`order` asc, content_blocks.`order` asc").
		Find(&blocks).Error
	return blocks, err
}
