package controller

import (
	"encoding/json"
	"strconv"

	"edforge_backend/internal/service"
	"edforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	Service *service.AttemptService
}

func NewAttemptController(svc *service.AttemptService) *AttemptController {
	return &AttemptController{Service: svc}
}

// @Summary 获取测验/考试题目（不含答案）
// @Tags 测验与考试
// @Produce json
// @Security ApiKeyAuth
// @Param blockId path int true "内容块ID"
// @Success 200 {object} util.Response
// @Router /api/attempts/blocks/{blockId}/questions [get]
func (c *AttemptController) GetQuestions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	blockID, err := strconv.Atoi(ctx.Param("blockId"))
	if err != nil {
		util.BadRequest(ctx, "invalid block id")
		return
	}

	resp, err := c.Service.GetQuestions(user.UserID, uint(blockID))
	if err != nil {
		util.EngineFailure(ctx, err)
		return
	}

	util.Success(ctx, resp)
}

// @Summary 开始一次测验/考试
// @Tags 测验与考试
// @Produce json
// @Security ApiKeyAuth
// @Param blockId path int true "内容块ID"
// @Success 201 {object} util.Response
// @Router /api/attempts/blocks/{blockId} [post]
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	blockID, err := strconv.Atoi(ctx.Param("blockId"))
	if err != nil {
		util.BadRequest(ctx, "invalid block id")
		return
	}

	attempt, err := c.Service.Start(user.UserID, uint(blockID))
	if err != nil {
		util.EngineFailure(ctx, err)
		return
	}

	util.Created(ctx, attempt)
}

type recordAnswerRequest struct {
	QuestionID uint            `json:"questionId" binding:"required"`
	Answer     json.RawMessage `json:"answer" binding:"required"`
}

// @Summary 记录单题作答（覆盖语义）
// @Tags 测验与考试
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param attemptId path int true "尝试ID"
// @Param body body recordAnswerRequest true "作答"
// @Success 200 {object} util.Response
// @Router /api/attempts/{attemptId}/answers [put]
func (c *AttemptController) RecordAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	attemptID, err := strconv.Atoi(ctx.Param("attemptId"))
	if err != nil {
		util.BadRequest(ctx, "invalid attempt id")
		return
	}

	var req recordAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.Service.RecordAnswer(user.UserID, uint(attemptID), req.QuestionID, req.Answer)
	if err != nil {
		util.EngineFailure(ctx, err)
		return
	}

	util.Success(ctx, attempt)
}

type submitAttemptRequest struct {
	TimeSpentSeconds int  `json:"timeSpentSeconds"`
	Override         bool `json:"override"`
}

// @Summary 提交测验/考试，同步判分
// @Tags 测验与考试
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param attemptId path int true "尝试ID"
// @Param body body submitAttemptRequest true "提交"
// @Success 200 {object} util.Response
// @Router /api/attempts/{attemptId}/submit [post]
func (c *AttemptController) SubmitAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	attemptID, err := strconv.Atoi(ctx.Param("attemptId"))
	if err != nil {
		util.BadRequest(ctx, "invalid attempt id")
		return
	}

	var req submitAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.Service.Submit(user.UserID, uint(attemptID), req.TimeSpentSeconds, req.Override)
	if err != nil {
		util.EngineFailure(ctx, err)
		return
	}

	util.Success(ctx, attempt)
}

// @Summary 查询既有成绩（考试单次策略下展示既往结果）
// @Tags 测验与考试
// @Produce json
// @Security ApiKeyAuth
// @Param blockId path int true "内容块ID"
// @Success 200 {object} util.Response
// @Router /api/attempts/blocks/{blockId}/result [get]
func (c *AttemptController) GetResult(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	blockID, err := strconv.Atoi(ctx.Param("blockId"))
	if err != nil {
		util.BadRequest(ctx, "invalid block id")
		return
	}

	attempt, err := c.Service.Result(user.UserID, uint(blockID))
	if err != nil {
		util.EngineFailure(ctx, err)
		return
	}

	util.Success(ctx, attempt)
}
