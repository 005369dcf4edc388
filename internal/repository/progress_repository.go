package repository

import (
	"encoding/json"
	"time"

	"edforge_backend/internal/model"

	"gorm.io/gorm"
)

// ProgressRepository is the progress ledger: one row per
// (user, block), upserted on every completion-state change.
type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// Upsert creates or mutates the ledger row for (userID, blockID).
// addSeconds is incremental time since the last update for the block;
// the increment happens in SQL so concurrent tabs never lose updates.
// completionData, when non-nil, replaces the stored payload.
func (r *ProgressRepository) Upsert(userID, blockID uint, isCompleted bool, addSeconds int, completionData json.RawMessage) (*model.ProgressRecord, error) {
	var record model.ProgressRecord

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND content_block_id = ?", userID, blockID).First(&record).Error
		now := time.Now()

		if err == gorm.ErrRecordNotFound {
			record = model.ProgressRecord{
				UserID:           userID,
				ContentBlockID:   blockID,
				IsCompleted:      isCompleted,
				TimeSpentSeconds: addSeconds,
				CompletionData:   completionData,
			}
			if isCompleted {
				record.CompletedAt = &now
			}
			return tx.Create(&record).Error
		}
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"is_completed":       isCompleted,
			"time_spent_seconds": gorm.Expr("time_spent_seconds + ?", addSeconds),
		}
		if isCompleted && !record.IsCompleted {
			updates["completed_at"] = &now
		} else if !isCompleted && record.IsCompleted {
			updates["completed_at"] = nil
		}
		if completionData != nil {
			updates["completion_data"] = completionData
		}
		if err := tx.Model(&record).Updates(updates).Error; err != nil {
			return err
		}
		// reload for the caller-visible cumulative time
		return tx.Where("user_id = ? AND content_block_id = ?", userID, blockID).First(&record).Error
	})

	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *ProgressRepository) Find(userID, blockID uint) (*model.ProgressRecord, error) {
	var record model.ProgressRecord
	if err := r.DB.Where("user_id = ? AND content_block_id = ?", userID, blockID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *ProgressRepository) ListByBlocks(userID uint, blockIDs []uint) ([]model.ProgressRecord, error) {
	if len(blockIDs) == 0 {
		return nil, nil
	}
	var records []model.ProgressRecord
	err := r.DB.Where("user_id = ? AND content_block_id IN ?", userID, blockIDs).Find(&records).Error
	return records, err
}

// CompletionMap indexes the user's records by block ID for quick aggregation.
func (r *ProgressRepository) CompletionMap(userID uint, blockIDs []uint) (map[uint]model.ProgressRecord, error) {
	records, err := r.ListByBlocks(userID, blockIDs)
	if err != nil {
		return nil, err
	}
	byBlock := make(map[uint]model.ProgressRecord, len(records))
	for _, rec := range records {
		byBlock[rec.ContentBlockID] = rec
	}
	return byBlock, nil
}
