package service

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"edforge_backend/internal/config"
	"edforge_backend/internal/model"
	"edforge_backend/internal/repository"
	"edforge_backend/pkg/database"
	"edforge_backend/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type testEnv struct {
	db         *gorm.DB
	aggregator *AggregatorService
	progress   *ProgressService
	attempt    *AttemptService
	submission *SubmissionService

	subjectID uint
	sessionID uint
}

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		ExamTimeLimitMinutes:  60,
		ExamPassingThreshold:  70,
		QuizPassingThreshold:  70,
		AssignmentPassPercent: 50,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	contentRepo := repository.NewContentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	engine := testEngineConfig()
	aggregator := NewAggregatorService(contentRepo, progressRepo, nil, 0)
	progress := NewProgressService(contentRepo, progressRepo, aggregator)
	attempt := NewAttemptService(contentRepo, attemptRepo, progress, engine)
	storage := &LocalStorageProvider{Config: &config.StorageConfig{LocalPath: t.TempDir()}}
	submission := NewSubmissionService(contentRepo, submissionRepo, storage, progress, engine)

	subject := model.Subject{Title: "Intro to Databases", IsPublished: true}
	require.NoError(t, db.Create(&subject).Error)
	lesson := model.Lesson{SubjectID: subject.ID, Title: "Relational Basics", Order: 1}
	require.NoError(t, db.Create(&lesson).Error)
	session := model.Session{LessonID: lesson.ID, Title: "Tables and Keys", Order: 1}
	require.NoError(t, db.Create(&session).Error)

	return &testEnv{
		db:         db,
		aggregator: aggregator,
		progress:   progress,
		attempt:    attempt,
		submission: submission,
		subjectID:  subject.ID,
		sessionID:  session.ID,
	}
}

func (e *testEnv) addSession(t *testing.T, title string, order int) uint {
	t.Helper()
	var lesson model.Lesson
	require.NoError(t, e.db.Where("subject_id = ?", e.subjectID).First(&lesson).Error)
	session := model.Session{LessonID: lesson.ID, Title: title, Order: order}
	require.NoError(t, e.db.Create(&session).Error)
	return session.ID
}

func (e *testEnv) addBlock(t *testing.T, sessionID uint, blockType model.ContentType, required bool, order int, data interface{}) uint {
	t.Helper()
	block := model.ContentBlock{
		SessionID:  sessionID,
		Type:       blockType,
		Title:      fmt.Sprintf("%s block %d", blockType, order),
		Order:      order,
		IsRequired: required,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		block.Data = raw
	}
	require.NoError(t, e.db.Create(&block).Error)
	return block.ID
}

func rawJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

// twoQuestionQuiz matches the scoring scenario used across tests: two
// one-point questions, pass at 50%.
func twoQuestionQuiz() model.QuizData {
	return model.QuizData{AssessmentData: model.AssessmentData{
		Questions: []model.Question{
			{ID: 1, Type: model.QuestionSingleChoice, Prompt: "Pick A", Options: []string{"A", "B"}, CorrectAnswer: json.RawMessage(`"A"`), Points: 1},
			{ID: 2, Type: model.QuestionTrueFalse, Prompt: "Sky is green", CorrectAnswer: json.RawMessage(`false`), Points: 1},
		},
		PassingThreshold: 50,
	}}
}

func examData(minutes int) model.ExaminationData {
	return model.ExaminationData{AssessmentData: model.AssessmentData{
		Questions: []model.Question{
			{ID: 1, Type: model.QuestionSingleChoice, Prompt: "Pick B", Options: []string{"A", "B"}, CorrectAnswer: json.RawMessage(`"B"`), Points: 2},
			{ID: 2, Type: model.QuestionMultipleSelect, Prompt: "Pick A and C", Options: []string{"A", "B", "C"}, CorrectAnswer: json.RawMessage(`["A","C"]`), Points: 2},
		},
		TimeLimitMinutes: minutes,
	}}
}

func fixedClock(start time.Time) (*time.Time, func() time.Time) {
	current := start
	return &current, func() time.Time { return current }
}
