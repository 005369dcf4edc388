package service

import (
	"fmt"
	"testing"

	"edforge_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) complete(t *testing.T, userID, blockID uint) {
	t.Helper()
	_, err := e.progress.UpdateProgress(userID, blockID, UpdateProgressRequest{IsCompleted: true})
	require.NoError(t, err)
}

func TestOptionalBlockPersistsAsOptional(t *testing.T) {
	env := newTestEnv(t)
	optID := env.addBlock(t, env.sessionID, model.BlockText, false, 1, model.TextData{Body: "extra"})
	reqID := env.addBlock(t, env.sessionID, model.BlockText, true, 2, model.TextData{Body: "core"})

	var stored model.ContentBlock
	require.NoError(t, env.db.First(&stored, optID).Error)
	assert.False(t, stored.IsRequired, "optional flag must survive the round trip")

	var storedRequired model.ContentBlock
	require.NoError(t, env.db.First(&storedRequired, reqID).Error)
	assert.True(t, storedRequired.IsRequired)
}

func TestSessionProgressCountsRequiredOnly(t *testing.T) {
	env := newTestEnv(t)
	r1 := env.addBlock(t, env.sessionID, model.BlockText, true, 1, model.TextData{Body: "a"})
	r2 := env.addBlock(t, env.sessionID, model.BlockText, true, 2, model.TextData{Body: "b"})
	opt := env.addBlock(t, env.sessionID, model.BlockText, false, 3, model.TextData{Body: "c"})

	env.complete(t, 5, r1)
	env.complete(t, 5, opt)

	sp, err := env.progress.SessionProgress(5, env.sessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, sp.TotalBlocks)
	assert.Equal(t, 2, sp.RequiredBlocks)
	assert.Equal(t, 2, sp.CompletedBlocks)
	assert.Equal(t, 1, sp.CompletedRequired)
	// optional blocks never move the percentage
	assert.Equal(t, 50, sp.Percentage)

	env.complete(t, 5, r2)
	sp, err = env.progress.SessionProgress(5, env.sessionID)
	require.NoError(t, err)
	assert.Equal(t, 100, sp.Percentage)
}

func TestSubjectProgressFlattensBlocksAcrossSessions(t *testing.T) {
	env := newTestEnv(t)

	// one session with a single required block, another with nine: a
	// per-session average would report 50% after completing just the
	// first block, the flattened count reports 10%
	small := env.sessionID
	smallBlock := env.addBlock(t, small, model.BlockText, true, 1, model.TextData{Body: "x"})
	big := env.addSession(t, "Deep Dive", 2)
	for i := 1; i <= 9; i++ {
		env.addBlock(t, big, model.BlockText, true, i, model.TextData{Body: fmt.Sprintf("part %d", i)})
	}

	env.complete(t, 5, smallBlock)

	sp, err := env.progress.SubjectProgress(5, env.subjectID)
	require.NoError(t, err)
	assert.Equal(t, 10, sp.RequiredBlocks)
	assert.Equal(t, 1, sp.CompletedRequired)
	assert.Equal(t, 10, sp.Percentage)
	assert.Len(t, sp.Sessions, 2)
}

func TestCertificateRequiresEveryRequiredBlock(t *testing.T) {
	env := newTestEnv(t)
	var blocks []uint
	for i := 1; i <= 10; i++ {
		blocks = append(blocks, env.addBlock(t, env.sessionID, model.BlockText, true, i, model.TextData{Body: "x"}))
	}

	for _, id := range blocks[:9] {
		env.complete(t, 5, id)
	}
	sp, err := env.progress.SubjectProgress(5, env.subjectID)
	require.NoError(t, err)
	assert.Equal(t, 90, sp.Percentage)
	assert.False(t, sp.CertificateEligible, "90% is not enough")

	env.complete(t, 5, blocks[9])
	sp, err = env.progress.SubjectProgress(5, env.subjectID)
	require.NoError(t, err)
	assert.Equal(t, 100, sp.Percentage)
	assert.True(t, sp.CertificateEligible)
}

func TestEmptyRequiredSetIsComplete(t *testing.T) {
	env := newTestEnv(t)
	env.addBlock(t, env.sessionID, model.BlockText, false, 1, model.TextData{Body: "optional"})

	sp, err := env.progress.SubjectProgress(5, env.subjectID)
	require.NoError(t, err)
	assert.Equal(t, 0, sp.RequiredBlocks)
	assert.Equal(t, 100, sp.Percentage)
	assert.True(t, sp.CertificateEligible)
}

func TestSubjectProgressIsPerUser(t *testing.T) {
	env := newTestEnv(t)
	blockID := env.addBlock(t, env.sessionID, model.BlockText, true, 1, model.TextData{Body: "x"})

	env.complete(t, 5, blockID)

	mine, err := env.progress.SubjectProgress(5, env.subjectID)
	require.NoError(t, err)
	assert.Equal(t, 100, mine.Percentage)

	theirs, err := env.progress.SubjectProgress(6, env.subjectID)
	require.NoError(t, err)
	assert.Equal(t, 0, theirs.Percentage)
}

func TestPassedQuizCountsTowardSubject(t *testing.T) {
	env := newTestEnv(t)
	textID := env.addBlock(t, env.sessionID, model.BlockText, true, 1, model.TextData{Body: "read me"})
	quizID := env.addBlock(t, env.sessionID, model.BlockQuiz, true, 2, twoQuestionQuiz())

	env.complete(t, 5, textID)

	attempt, err := env.attempt.Start(5, quizID)
	require.NoError(t, err)
	_, err = env.attempt.RecordAnswer(5, attempt.ID, 1, rawJSON(t, "A"))
	require.NoError(t, err)
	_, err = env.attempt.RecordAnswer(5, attempt.ID, 2, rawJSON(t, false))
	require.NoError(t, err)
	_, err = env.attempt.Submit(5, attempt.ID, 60, false)
	require.NoError(t, err)

	sp, err := env.progress.SubjectProgress(5, env.subjectID)
	require.NoError(t, err)
	assert.Equal(t, 100, sp.Percentage)
	assert.True(t, sp.CertificateEligible)
}
