package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"edforge_backend/internal/model"
	"edforge_backend/internal/repository"

	"github.com/go-redis/redis/v8"
)

// AggregatorService computes rolled-up completion statistics from the
// ledger and the hierarchy. Percentages count required blocks only;
// the whole-course figure is computed over the flattened required set,
// never by averaging session percentages.
type AggregatorService struct {
	ContentRepo  *repository.ContentRepository
	ProgressRepo *repository.ProgressRepository
	Redis        *redis.Client
	CacheTTL     time.Duration
}

func NewAggregatorService(contentRepo *repository.ContentRepository, progressRepo *repository.ProgressRepository, rdb *redis.Client, cacheTTL time.Duration) *AggregatorService {
	return &AggregatorService{
		ContentRepo:  contentRepo,
		ProgressRepo: progressRepo,
		Redis:        rdb,
		CacheTTL:     cacheTTL,
	}
}

func completionPercentage(completed, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

func buildSessionProgress(sessionID uint, blocks []model.ContentBlock, records map[uint]model.ProgressRecord) model.SessionProgress {
	sp := model.SessionProgress{SessionID: sessionID}
	for _, b := range blocks {
		rec, ok := records[b.ID]
		bp := model.BlockProgress{
			ContentBlockID: b.ID,
			Type:           b.Type,
			Title:          b.Title,
			Order:          b.Order,
			IsRequired:     b.IsRequired,
		}
		if ok {
			bp.IsCompleted = rec.IsCompleted
			bp.TimeSpentSeconds = rec.TimeSpentSeconds
		}
		sp.Blocks = append(sp.Blocks, bp)

		sp.TotalBlocks++
		if bp.IsCompleted {
			sp.CompletedBlocks++
		}
		if b.IsRequired {
			sp.RequiredBlocks++
			if bp.IsCompleted {
				sp.CompletedRequired++
			}
		}
	}
	sp.Percentage = completionPercentage(sp.CompletedRequired, sp.RequiredBlocks)
	return sp
}

// SessionProgress returns per-block records and counts for one session.
func (s *AggregatorService) SessionProgress(userID, sessionID uint) (*model.SessionProgress, error) {
	blocks, err := s.ContentRepo.BlocksBySession(sessionID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.ID)
	}
	records, err := s.ProgressRepo.CompletionMap(userID, ids)
	if err != nil {
		return nil, err
	}
	sp := buildSessionProgress(sessionID, blocks, records)
	return &sp, nil
}

// SubjectProgress aggregates the whole course. Certificate eligibility
// is strictly percentage == 100.
func (s *AggregatorService) SubjectProgress(userID, subjectID uint) (*model.SubjectProgress, error) {
	if cached := s.cachedSubject(userID, subjectID); cached != nil {
		return cached, nil
	}

	blocks, err := s.ContentRepo.BlocksBySubject(subjectID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(blocks))
	bySession := make(map[uint][]model.ContentBlock)
	var sessionOrder []uint
	for _, b := range blocks {
		ids = append(ids, b.ID)
		if _, seen := bySession[b.SessionID]; !seen {
			sessionOrder = append(sessionOrder, b.SessionID)
		}
		bySession[b.SessionID] = append(bySession[b.SessionID], b)
	}

	records, err := s.ProgressRepo.CompletionMap(userID, ids)
	if err != nil {
		return nil, err
	}

	result := &model.SubjectProgress{SubjectID: subjectID}
	for _, sessionID := range sessionOrder {
		sp := buildSessionProgress(sessionID, bySession[sessionID], records)
		result.Sessions = append(result.Sessions, sp)
		result.TotalBlocks += sp.TotalBlocks
		result.RequiredBlocks += sp.RequiredBlocks
		result.CompletedBlocks += sp.CompletedBlocks
		result.CompletedRequired += sp.CompletedRequired
	}
	result.Percentage = completionPercentage(result.CompletedRequired, result.RequiredBlocks)
	result.CertificateEligible = result.Percentage == 100

	s.cacheSubject(userID, subjectID, result)
	return result, nil
}

func subjectCacheKey(userID, subjectID uint) string {
	return fmt.Sprintf("progress:agg:%d:%d", userID, subjectID)
}

func (s *AggregatorService) cachedSubject(userID, subjectID uint) *model.SubjectProgress {
	if s.Redis == nil {
		return nil
	}
	raw, err := s.Redis.Get(context.Background(), subjectCacheKey(userID, subjectID)).Bytes()
	if err != nil {
		return nil
	}
	var sp model.SubjectProgress
	if err := json.Unmarshal(raw, &sp); err != nil {
		return nil
	}
	return &sp
}

func (s *AggregatorService) cacheSubject(userID, subjectID uint, sp *model.SubjectProgress) {
	if s.Redis == nil {
		return
	}
	raw, err := json.Marshal(sp)
	if err != nil {
		return
	}
	s.Redis.Set(context.Background(), subjectCacheKey(userID, subjectID), raw, s.CacheTTL)
}

// InvalidateForBlock drops the cached aggregate the block feeds into.
// Called on every ledger write for the user.
func (s *AggregatorService) InvalidateForBlock(userID, blockID uint) {
	if s.Redis == nil {
		return
	}
	subjectID, err := s.subjectIDForBlock(blockID)
	if err != nil {
		return
	}
	s.Redis.Del(context.Background(), subjectCacheKey(userID, subjectID))
}

func (s *AggregatorService) subjectIDForBlock(blockID uint) (uint, error) {
	var subjectID uint
	err := s.ContentRepo.DB.
		Model(&model.ContentBlock{}).
		Select("lessons.subject_id").
		Joins("JOIN sessions ON sessions.id = content_blocks.session_id").
		Joins("JOIN lessons ON lessons.id = sessions.lesson_id").
		Where("content_blocks.id = ?", blockID).
		Scan(&subjectID).Error
	return subjectID, err
}
