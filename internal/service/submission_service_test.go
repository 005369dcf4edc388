package service

import (
	"context"
	"strings"
	"testing"

	"edforge_backend/internal/model"
	"edforge_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assignmentBlock(t *testing.T, env *testEnv, format model.SubmissionFormat) uint {
	t.Helper()
	return env.addBlock(t, env.sessionID, model.BlockAssignment, true, 1, model.AssignmentData{
		Instructions:     "Write an essay",
		SubmissionFormat: format,
	})
}

func textFile(name, body string) SubmissionFile {
	return SubmissionFile{
		Name:        name,
		ContentType: "text/plain",
		Size:        int64(len(body)),
		Reader:      strings.NewReader(body),
	}
}

func TestSubmitFormatValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	textID := assignmentBlock(t, env, model.FormatText)
	_, err := env.submission.Submit(ctx, 5, textID, "", nil)
	assert.Equal(t, util.KindValidation, util.Kind(err))
	_, err = env.submission.Submit(ctx, 5, textID, "my essay", nil)
	require.NoError(t, err)

	fileID := assignmentBlock(t, env, model.FormatFile)
	_, err = env.submission.Submit(ctx, 5, fileID, "text only", nil)
	assert.Equal(t, util.KindValidation, util.Kind(err))
	_, err = env.submission.Submit(ctx, 5, fileID, "", []SubmissionFile{textFile("a.txt", "hi")})
	require.NoError(t, err)

	bothID := assignmentBlock(t, env, model.FormatBoth)
	_, err = env.submission.Submit(ctx, 5, bothID, "", nil)
	assert.Equal(t, util.KindValidation, util.Kind(err))
	// either part alone satisfies "both"
	_, err = env.submission.Submit(ctx, 5, bothID, "notes", nil)
	require.NoError(t, err)
}

func TestSubmitRejectsDuplicateAndNonAssignment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	blockID := assignmentBlock(t, env, model.FormatText)

	_, err := env.submission.Submit(ctx, 5, blockID, "first", nil)
	require.NoError(t, err)
	_, err = env.submission.Submit(ctx, 5, blockID, "second", nil)
	assert.Equal(t, util.KindAlreadySubmitted, util.Kind(err))

	quizID := env.addBlock(t, env.sessionID, model.BlockQuiz, true, 2, twoQuestionQuiz())
	_, err = env.submission.Submit(ctx, 5, quizID, "essay", nil)
	assert.Equal(t, util.KindInvalidBlockType, util.Kind(err))
}

func TestSubmitStoresFileKeys(t *testing.T) {
	env := newTestEnv(t)
	blockID := assignmentBlock(t, env, model.FormatFile)

	sub, err := env.submission.Submit(context.Background(), 5, blockID, "",
		[]SubmissionFile{textFile("report.pdf", "pdf bytes"), textFile("notes.txt", "notes")})
	require.NoError(t, err)

	keys := sub.FileKeys()
	require.Len(t, keys, 2)
	assert.True(t, strings.HasPrefix(keys[0], "assignments/"))
	assert.True(t, strings.HasSuffix(keys[0], ".pdf"))
	assert.True(t, strings.HasSuffix(keys[1], ".txt"))
}

func TestGradePassBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// exactly 50.0% passes
	passID := assignmentBlock(t, env, model.FormatText)
	passSub, err := env.submission.Submit(ctx, 5, passID, "essay", nil)
	require.NoError(t, err)
	graded, err := env.submission.Grade(9, model.Staff, passSub.ID, GradeRequest{Score: 500, MaxScore: 1000, Feedback: "just enough"})
	require.NoError(t, err)
	assert.Equal(t, 50.0, graded.Percentage)
	assert.True(t, graded.IsPassed)

	var rec model.ProgressRecord
	require.NoError(t, env.db.Where("user_id = ? AND content_block_id = ?", 5, passID).First(&rec).Error)
	assert.True(t, rec.IsCompleted)
	assert.Contains(t, string(rec.CompletionData), "submissionId")

	// 49.9% fails and leaves the block incomplete
	failID := assignmentBlock(t, env, model.FormatText)
	failSub, err := env.submission.Submit(ctx, 5, failID, "essay", nil)
	require.NoError(t, err)
	graded, err = env.submission.Grade(9, model.Staff, failSub.ID, GradeRequest{Score: 499, MaxScore: 1000})
	require.NoError(t, err)
	assert.Equal(t, 49.9, graded.Percentage)
	assert.False(t, graded.IsPassed)

	var count int64
	env.db.Model(&model.ProgressRecord{}).Where("user_id = ? AND content_block_id = ? AND is_completed = ?", 5, failID, true).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestGradeAuthorizationAndSingleShot(t *testing.T) {
	env := newTestEnv(t)
	blockID := assignmentBlock(t, env, model.FormatText)
	sub, err := env.submission.Submit(context.Background(), 5, blockID, "essay", nil)
	require.NoError(t, err)

	_, err = env.submission.Grade(6, model.Student, sub.ID, GradeRequest{Score: 8, MaxScore: 10})
	assert.Equal(t, util.KindAuthorization, util.Kind(err))

	// Admin counts as staff
	graded, err := env.submission.Grade(9, model.Admin, sub.ID, GradeRequest{Score: 8, MaxScore: 10, Feedback: "good"})
	require.NoError(t, err)
	assert.Equal(t, 80.0, graded.Percentage)
	require.NotNil(t, graded.GradedBy)
	assert.EqualValues(t, 9, *graded.GradedBy)

	// single-shot: a second grade is rejected
	_, err = env.submission.Grade(9, model.Staff, sub.ID, GradeRequest{Score: 2, MaxScore: 10})
	assert.Equal(t, util.KindValidation, util.Kind(err))
}

func TestGradeScoreRange(t *testing.T) {
	env := newTestEnv(t)
	blockID := assignmentBlock(t, env, model.FormatText)
	sub, err := env.submission.Submit(context.Background(), 5, blockID, "essay", nil)
	require.NoError(t, err)

	_, err = env.submission.Grade(9, model.Staff, sub.ID, GradeRequest{Score: 11, MaxScore: 10})
	assert.Equal(t, util.KindValidation, util.Kind(err))
	_, err = env.submission.Grade(9, model.Staff, sub.ID, GradeRequest{Score: -1, MaxScore: 10})
	assert.Equal(t, util.KindValidation, util.Kind(err))
}

func TestSubmissionStatusFlow(t *testing.T) {
	env := newTestEnv(t)
	blockID := assignmentBlock(t, env, model.FormatText)

	status, err := env.submission.Status(5, blockID)
	require.NoError(t, err)
	assert.False(t, status.HasSubmitted)

	sub, err := env.submission.Submit(context.Background(), 5, blockID, "essay", nil)
	require.NoError(t, err)

	// pending grading: submitted, but no score detail exposed
	status, err = env.submission.Status(5, blockID)
	require.NoError(t, err)
	assert.True(t, status.HasSubmitted)
	assert.Equal(t, model.SubmissionSubmitted, status.Status)
	assert.Nil(t, status.Submission)

	_, err = env.submission.Grade(9, model.Staff, sub.ID, GradeRequest{Score: 7, MaxScore: 10, Feedback: "solid"})
	require.NoError(t, err)

	status, err = env.submission.Status(5, blockID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionGraded, status.Status)
	require.NotNil(t, status.Submission)
	assert.Equal(t, "solid", status.Submission.Feedback)
}
