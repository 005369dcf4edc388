package controller

import (
	"strconv"

	"edforge_backend/internal/service"
	"edforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	Service *service.SubmissionService
}

func NewSubmissionController(svc *service.SubmissionService) *SubmissionController {
	return &SubmissionController{Service: svc}
}

// @Summary 提交作业（文本/文件，依块配置）
// @Tags 作业
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param blockId path int true "内容块ID"
// @Param text formData string false "文本作答"
// @Param files formData file false "附件（可多个）"
// @Success 201 {object} util.Response
// @Router /api/assignments/blocks/{blockId} [post]
func (c *SubmissionController) SubmitAssignment(ctx *gin.Context) {
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

	text := ctx.PostForm("text")

	var files []service.SubmissionFile
	if form, err := ctx.MultipartForm(); err == nil && form != nil {
		for _, header := range form.File["files"] {
			f, err := header.Open()
			if err != nil {
				util.BadRequest(ctx, "unreadable upload: "+header.Filename)
				return
			}
			defer f.Close()
			files = append(files, service.SubmissionFile{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Reader:      f,
			})
		}
	}

	sub, err := c.Service.Submit(ctx.Request.Context(), user.UserID, uint(blockID), text, files)
	if err != nil {
		util.EngineFailure(ctx, err)
		return
	}

	util.Created(ctx, sub)
}

// @Summary 查询作业提交状态
// @Tags 作业
// @Produce json
// @Security ApiKeyAuth
// @Param blockId path int true "内容块ID"
// @Success 200 {object} util.Response
// @Router /api/assignments/blocks/{blockId} [get]
func (c *SubmissionController) GetSubmissionStatus(ctx *gin.Context) {
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

	status, err := c.Service.Status(user.UserID, uint(blockID))
	if err != nil {
		util.EngineFailure(ctx, err)
		return
	}

	util.Success(ctx, status)
}

// @Summary 教师批改作业（单次，50% 及格线）
// @Tags 作业
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "提交ID"
// @Param body body service.GradeRequest true "评分"
// @Success 200 {object} util.Response
// @Router /api/staff/assignments/submissions/{id}/grade [post]
func (c *SubmissionController) GradeAssignment(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	submissionID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid submission id")
		return
	}

	var req service.GradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sub, err := c.Service.Grade(user.UserID, user.Role, uint(submissionID), req)
	if err != nil {
		util.EngineFailure(ctx, err)
		return
	}

	util.Success(ctx, sub)
}

// @Summary 待批改列表（按内容块）
// @Tags 作业
// @Produce json
// @Security ApiKeyAuth
// @Param blockId path int true "内容块ID"
// @Success 200 {object} util.Response
// @Router /api/staff/assignments/blocks/{blockId}/pending [get]
func (c *SubmissionController) ListPending(ctx *gin.Context) {
	blockID, err := strconv.Atoi(ctx.Param("blockId"))
	if err != nil {
		util.BadRequest(ctx, "invalid block id")
		return
	}

	subs, err := c.Service.SubmissionRepo.ListPendingByBlock(uint(blockID))
	if err != nil {
		util.EngineFailure(ctx, err)
		return
	}

	util.Success(ctx, subs)
}
