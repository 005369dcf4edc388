package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"edforge_backend/internal/config"
	"edforge_backend/internal/model"
	"edforge_backend/internal/repository"
	"edforge_backend/internal/util"
	"edforge_backend/pkg/logger"
	"edforge_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttemptService runs quiz and examination attempts: question
// delivery, answer collection, the submit/auto-submit transitions and
// synchronous scoring. Examinations admit exactly one attempt ever;
// quizzes honour the block's attempt limit (0 = unlimited).
type AttemptService struct {
	ContentRepo *repository.ContentRepository
	AttemptRepo *repository.AttemptRepository
	Progress    *ProgressService
	Engine      config.EngineConfig

	now func() time.Time
}

func NewAttemptService(contentRepo *repository.ContentRepository, attemptRepo *repository.AttemptRepository, progress *ProgressService, engine config.EngineConfig) *AttemptService {
	return &AttemptService{
		ContentRepo: contentRepo,
		AttemptRepo: attemptRepo,
		Progress:    progress,
		Engine:      engine,
		now:         time.Now,
	}
}

type QuestionSetResponse struct {
	Questions        []model.Question `json:"questions"`
	CanAttempt       bool             `json:"canAttempt"`
	PriorAttempts    int              `json:"priorAttempts"`
	TimeLimitMinutes int              `json:"timeLimitMinutes"`
	PriorResult      *model.Attempt   `json:"priorResult,omitempty"`
}

// GetQuestions delivers the question set without correct answers,
// along with whether another attempt is allowed.
func (s *AttemptService) GetQuestions(userID, blockID uint) (*QuestionSetResponse, error) {
	block, data, err := s.assessmentBlock(blockID)
	if err != nil {
		return nil, err
	}

	count, err := s.AttemptRepo.CountByUserAndBlock(userID, blockID)
	if err != nil {
		return nil, err
	}

	resp := &QuestionSetResponse{
		PriorAttempts:    int(count),
		TimeLimitMinutes: s.timeBudget(block.Type, data),
		CanAttempt:       true,
	}
	for _, q := range data.Questions {
		resp.Questions = append(resp.Questions, q.Stripped())
	}

	prior, err := s.AttemptRepo.LatestCompleted(userID, blockID)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		resp.PriorResult = prior
		if block.Type == model.BlockExamination {
			resp.CanAttempt = false
		}
	}
	if block.Type == model.BlockQuiz && data.AttemptLimit > 0 && int(count) >= data.AttemptLimit {
		resp.CanAttempt = false
	}
	return resp, nil
}

// Start opens an attempt. An open attempt for the same block is
// resumed rather than duplicated.
func (s *AttemptService) Start(userID, blockID uint) (*model.Attempt, error) {
	block, data, err := s.assessmentBlock(blockID)
	if err != nil {
		return nil, err
	}

	if open, err := s.AttemptRepo.OpenAttempt(userID, blockID); err != nil {
		return nil, err
	} else if open != nil {
		if s.expired(open) {
			if _, err := s.finalize(open, data, true); err != nil {
				return nil, err
			}
		} else {
			return open, nil
		}
	}

	count, err := s.AttemptRepo.CountByUserAndBlock(userID, blockID)
	if err != nil {
		return nil, err
	}

	if block.Type == model.BlockExamination {
		claimed, err := s.AttemptRepo.HasExamClaim(userID, blockID)
		if err != nil {
			return nil, err
		}
		if claimed {
			return nil, util.ErrAlreadyAttempted
		}
	} else if data.AttemptLimit > 0 && int(count) >= data.AttemptLimit {
		return nil, util.ErrAttemptLimit
	}

	started := s.now()
	attempt := &model.Attempt{
		UserID:         userID,
		ContentBlockID: blockID,
		AttemptNumber:  int(count) + 1,
		BlockType:      block.Type,
		Status:         model.AttemptInProgress,
		MaxScore:       data.MaxScore(),
		StartedAt:      started,
	}
	if budget := s.timeBudget(block.Type, data); budget > 0 {
		deadline := started.Add(time.Duration(budget) * time.Minute)
		attempt.DeadlineAt = &deadline
	}

	if block.Type == model.BlockExamination {
		err = s.AttemptRepo.CreateExamAttempt(attempt)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race against another tab
			return nil, util.ErrAlreadyAttempted
		}
	} else {
		err = s.AttemptRepo.Create(attempt)
	}
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

// RecordAnswer stores one answer while the attempt is in progress.
// Last write wins per question. An expired attempt is auto-submitted
// on touch and the write rejected.
func (s *AttemptService) RecordAnswer(userID, attemptID, questionID uint, answer json.RawMessage) (*model.Attempt, error) {
	attempt, data, err := s.ownedAttempt(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, util.ErrAttemptClosed
	}
	if s.expired(attempt) {
		if _, err := s.finalize(attempt, data, true); err != nil {
			return nil, err
		}
		return nil, util.ErrAttemptClosed
	}

	if len(answer) == 0 {
		return nil, util.Validationf("answer payload required")
	}
	known := false
	for _, q := range data.Questions {
		if q.ID == questionID {
			known = true
			break
		}
	}
	if !known {
		return nil, util.Validationf("question %d does not belong to this attempt", questionID)
	}

	answers := attempt.AnswerMap()
	answers[questionID] = answer
	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	attempt.Answers = raw
	if err := s.AttemptRepo.Update(attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// Submit is the explicit learner action. Past the deadline it degrades
// to the auto-submit path: accepted as-is, no unanswered gate. Before
// the deadline unanswered questions reject unless override is set.
func (s *AttemptService) Submit(userID, attemptID uint, timeSpentSeconds int, override bool) (*model.Attempt, error) {
	attempt, data, err := s.ownedAttempt(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, util.ErrAttemptClosed
	}
	if timeSpentSeconds < 0 {
		return nil, util.ErrNegativeTime
	}

	if s.expired(attempt) {
		return s.finalize(attempt, data, true)
	}

	if !override {
		if missing := unanswered(data.Questions, attempt.AnswerMap()); len(missing) > 0 {
			return nil, util.Validationf("unanswered questions: %s; submit with override to proceed", joinIDs(missing))
		}
	}

	attempt.TimeSpentSeconds = timeSpentSeconds
	return s.finalize(attempt, data, false)
}

// SweepExpired auto-submits attempts whose deadline passed without an
// explicit submit. Run from the background ticker.
func (s *AttemptService) SweepExpired() error {
	attempts, err := s.AttemptRepo.ExpiredInProgress(s.now(), 100)
	if err != nil {
		return err
	}
	for i := range attempts {
		attempt := &attempts[i]
		block, data, err := s.assessmentBlock(attempt.ContentBlockID)
		if err != nil {
			logger.Log.Error("sweep: block lookup failed",
				zap.Uint("attemptId", attempt.ID), zap.Error(err))
			continue
		}
		if _, err := s.finalize(attempt, data, true); err != nil {
			logger.Log.Error("sweep: auto-submit failed",
				zap.Uint("attemptId", attempt.ID),
				zap.String("blockType", string(block.Type)),
				zap.Error(err))
		}
	}
	return nil
}

// Result returns the latest graded attempt, shown instead of a new
// attempt when the single-examination policy blocks entry.
func (s *AttemptService) Result(userID, blockID uint) (*model.Attempt, error) {
	attempt, err := s.AttemptRepo.LatestCompleted(userID, blockID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, util.ErrAttemptNotFound
	}
	return attempt, nil
}

// finalize moves an in-progress attempt through submitted to graded:
// synchronous scoring, pass determination, then the completion event
// into the ledger when passed.
func (s *AttemptService) finalize(attempt *model.Attempt, data model.AssessmentData, auto bool) (*model.Attempt, error) {
	attempt.Status = model.AttemptSubmitted
	attempt.AutoSubmitted = auto

	now := s.now()
	if auto {
		elapsed := int(now.Sub(attempt.StartedAt).Seconds())
		if attempt.DeadlineAt != nil {
			if budget := int(attempt.DeadlineAt.Sub(attempt.StartedAt).Seconds()); elapsed > budget {
				elapsed = budget
			}
		}
		attempt.TimeSpentSeconds = elapsed
	}

	answers := attempt.AnswerMap()
	score := 0
	for _, q := range data.Questions {
		if raw, ok := answers[q.ID]; ok && answerCorrect(q, raw) {
			score += q.Points
		}
	}
	attempt.Score = score
	attempt.MaxScore = data.MaxScore()
	if attempt.MaxScore > 0 {
		attempt.Percentage = int(math.Round(100 * float64(score) / float64(attempt.MaxScore)))
	}
	threshold := data.PassingThreshold
	if threshold <= 0 {
		if attempt.BlockType == model.BlockExamination {
			threshold = s.Engine.ExamPassingThreshold
		} else {
			threshold = s.Engine.QuizPassingThreshold
		}
	}
	attempt.IsPassed = attempt.Percentage >= threshold
	attempt.Status = model.AttemptGraded
	attempt.CompletedAt = &now

	if err := s.AttemptRepo.Update(attempt); err != nil {
		return nil, err
	}

	mode := "manual"
	if auto {
		mode = "auto"
	}
	monitoring.AttemptsGraded.WithLabelValues(string(attempt.BlockType), mode).Inc()

	if attempt.IsPassed {
		completion, _ := json.Marshal(map[string]interface{}{
			"attemptId":     attempt.ID,
			"attemptNumber": attempt.AttemptNumber,
			"percentage":    attempt.Percentage,
		})
		if _, err := s.Progress.CompleteAssessed(attempt.UserID, attempt.ContentBlockID, completion); err != nil {
			return nil, err
		}
	}
	return attempt, nil
}

func (s *AttemptService) expired(attempt *model.Attempt) bool {
	return attempt.DeadlineAt != nil && !s.now().Before(*attempt.DeadlineAt)
}

func (s *AttemptService) timeBudget(blockType model.ContentType, data model.AssessmentData) int {
	if data.TimeLimitMinutes > 0 {
		return data.TimeLimitMinutes
	}
	if blockType == model.BlockExamination {
		return s.Engine.ExamTimeLimitMinutes
	}
	return 0 // quizzes default unbounded
}

func (s *AttemptService) assessmentBlock(blockID uint) (*model.ContentBlock, model.AssessmentData, error) {
	block, err := s.ContentRepo.FindBlock(blockID)
	if err == gorm.ErrRecordNotFound {
		return nil, model.AssessmentData{}, util.ErrBlockNotFound
	}
	if err != nil {
		return nil, model.AssessmentData{}, err
	}
	data, ok := block.AssessmentPayload()
	if !ok {
		return nil, model.AssessmentData{}, util.ErrNotAssessable
	}
	return block, data, nil
}

func (s *AttemptService) ownedAttempt(userID, attemptID uint) (*model.Attempt, model.AssessmentData, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err == gorm.ErrRecordNotFound {
		return nil, model.AssessmentData{}, util.ErrAttemptNotFound
	}
	if err != nil {
		return nil, model.AssessmentData{}, err
	}
	if attempt.UserID != userID {
		return nil, model.AssessmentData{}, util.ErrAttemptNotFound
	}
	_, data, err := s.assessmentBlock(attempt.ContentBlockID)
	if err != nil {
		return nil, model.AssessmentData{}, err
	}
	return attempt, data, nil
}

// answerCorrect applies type-specific equality: exact string match for
// single choice and fill-in-blank, set equality for multiple select,
// boolean equality for true/false.
func answerCorrect(q model.Question, raw json.RawMessage) bool {
	if len(q.CorrectAnswer) == 0 {
		return false
	}
	switch q.Type {
	case model.QuestionSingleChoice, model.QuestionFillBlank:
		var given, correct string
		if json.Unmarshal(raw, &given) != nil || json.Unmarshal(q.CorrectAnswer, &correct) != nil {
			return false
		}
		return given == correct
	case model.QuestionMultipleSelect:
		var given, correct []string
		if json.Unmarshal(raw, &given) != nil || json.Unmarshal(q.CorrectAnswer, &correct) != nil {
			return false
		}
		return stringSetEqual(given, correct)
	case model.QuestionTrueFalse:
		var given, correct bool
		if json.Unmarshal(raw, &given) != nil || json.Unmarshal(q.CorrectAnswer, &correct) != nil {
			return false
		}
		return given == correct
	}
	return false
}

// stringSetEqual compares as sets: order and repeated selections are
// irrelevant.
func stringSetEqual(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, s := range a {
		as[s] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, s := range b {
		bs[s] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for s := range as {
		if _, ok := bs[s]; !ok {
			return false
		}
	}
	return true
}

func unanswered(questions []model.Question, answers map[uint]json.RawMessage) []uint {
	var missing []uint
	for _, q := range questions {
		if _, ok := answers[q.ID]; !ok {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

func joinIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
