package controller

import (
	"strconv"

	"edforge_backend/internal/service"
	"edforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	Service *service.ProgressService
}

func NewProgressController(svc *service.ProgressService) *ProgressController {
	return &ProgressController{Service: svc}
}

// @Summary 更新内容块进度
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param blockId path int true "内容块ID"
// @Param body body service.UpdateProgressRequest true "进度更新"
// @Success 200 {object} util.Response
// @Router /api/progress/blocks/{blockId} [put]
func (c *ProgressController) UpdateProgress(ctx *gin.Context) {
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

	var req service.UpdateProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	record, err := c.Service.UpdateProgress(user.UserID, uint(blockID), req)
	if err != nil {
		util.EngineFailure(ctx, err)
		return
	}

	util.Success(ctx, record)
}

// @Summary 获取单个内容块进度
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param blockId path int true "内容块ID"
// @Success 200 {object} util.Response
// @Router /api/progress/blocks/{blockId} [get]
func (c *ProgressController) GetBlockProgress(ctx *gin.Context) {
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

	record, err := c.Service.BlockProgress(user.UserID, uint(blockID))
	if err != nil {
		util.EngineFailure(ctx, err)
		return
	}

	util.Success(ctx, record)
}

// @Summary 获取单节进度
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param sessionId path int true "小节ID"
// @Success 200 {object} util.Response
// @Router /api/progress/sessions/{sessionId} [get]
func (c *ProgressController) GetSessionProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	sessionID, err := strconv.Atoi(ctx.Param("sessionId"))
	if err != nil {
		util.BadRequest(ctx, "invalid session id")
		return
	}

	progress, err := c.Service.SessionProgress(user.UserID, uint(sessionID))
	if err != nil {
		util.EngineFailure(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// @Summary 获取整课进度（含证书资格）
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param subjectId path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/progress/subjects/{subjectId} [get]
func (c *ProgressController) GetSubjectProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	subjectID, err := strconv.Atoi(ctx.Param("subjectId"))
	if err != nil {
		util.BadRequest(ctx, "invalid subject id")
		return
	}

	progress, err := c.Service.SubjectProgress(user.UserID, uint(subjectID))
	if err != nil {
		util.EngineFailure(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// @Summary 证书资格查询
// @Tags 证书
// @Produce json
// @Security ApiKeyAuth
// @Param subjectId path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/certificates/subjects/{subjectId}/eligibility [get]
func (c *ProgressController) GetCertificateEligibility(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	subjectID, err := strconv.Atoi(ctx.Param("subjectId"))
	if err != nil {
		util.BadRequest(ctx, "invalid subject id")
		return
	}

	progress, err := c.Service.SubjectProgress(user.UserID, uint(subjectID))
	if err != nil {
		util.EngineFailure(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"subjectId":  progress.SubjectID,
		"percentage": progress.Percentage,
		"eligible":   progress.CertificateEligible,
	})
}
