package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair/cssvar"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair/imagecheck"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair/unescape"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/dto"
	apperrors "github.com/Jakeminator123/sajtmaskin-sub013/pkg/errors"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
)

// ImageChecker 图片引用校验
type ImageChecker interface {
	Validate(ctx context.Context, files []entity.GeneratedFile, opts imagecheck.Options) (*imagecheck.Report, []entity.GeneratedFile, error)
	CanFix() bool
}

// RepairHandler 产物修复处理器
type RepairHandler struct {
	images ImageChecker
}

// NewRepairHandler 创建产物修复处理器
func NewRepairHandler(images ImageChecker) *RepairHandler {
	return &RepairHandler{images: images}
}

// CSS 校验样式自定义属性，fix=true 时返回修复后的内容
// @Summary 样式检查
// @Tags Repair
// @Accept json
// @Produce json
// @Param body body dto.CSSRepairRequest true "样式"
// @Success 200 {object} dto.Response[dto.CSSRepairResponse]
// @Router /v1/repair/css [post]
func (h *RepairHandler) CSS(c *gin.Context) {
	var req dto.CSSRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	issues := cssvar.Validate(req.CSS)
	resp := dto.CSSRepairResponse{
		Valid:  len(issues) == 0,
		Issues: issues,
	}
	if resp.Issues == nil {
		resp.Issues = []entity.StyleIssue{}
	}
	if req.Fix {
		fixed, applied := cssvar.Fix(req.CSS, issues)
		resp.Fixed = &fixed
		resp.Applied = applied
	}
	dto.Success(c, resp)
}

// Unicode 还原文本中的 Unicode 转义序列
// @Summary Unicode 还原
// @Tags Repair
// @Accept json
// @Produce json
// @Param body body dto.UnicodeRequest true "文本"
// @Success 200 {object} dto.Response[dto.UnicodeResponse]
// @Router /v1/repair/unicode [post]
func (h *RepairHandler) Unicode(c *gin.Context) {
	var req dto.UnicodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	decoded := unescape.Count(req.Content)
	dto.Success(c, dto.UnicodeResponse{
		Content: unescape.Normalize(req.Content),
		Changed: decoded > 0,
		Decoded: decoded,
	})
}

// Images 探测图片引用，autoFix 时用图库图片替换失效引用
// @Summary 图片引用校验
// @Tags Repair
// @Accept json
// @Produce json
// @Param body body dto.ImageCheckRequest true "文件"
// @Success 200 {object} dto.Response[dto.ImageCheckResponse]
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/repair/images [post]
func (h *RepairHandler) Images(c *gin.Context) {
	if h.images == nil {
		dto.ServiceUnavailable(c, "image validation not configured")
		return
	}

	var req dto.ImageCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	report, files, err := h.images.Validate(ctx, req.Files, imagecheck.Options{AutoFix: req.AutoFix})
	if err != nil {
		logger.Error(ctx, "image validation failed", err)
		dto.AppError(c, apperrors.Wrap(err, apperrors.CodeRepairFailed, "image validation failed"), nil)
		return
	}

	resp := dto.ImageCheckResponse{
		Checked:  report.Checked,
		Broken:   report.Broken,
		Replaced: report.Replaced,
		CanFix:   h.images.CanFix(),
		Failures: report.Failures,
	}
	if resp.Broken == nil {
		resp.Broken = []entity.BrokenImageRef{}
	}
	if req.AutoFix {
		resp.Files = files
	}
	dto.Success(c, resp)
}
