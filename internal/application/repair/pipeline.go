// Package repair 组合三个产物修复步骤：Unicode 转义还原、样式自定义属性修复、图片引用校验
//
// 任何一步失败都只记录在报告中，原内容保持不变，不会中断工作流；只有上下文取消会返回 error。
package repair

import (
	"context"
	"fmt"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair/cssvar"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair/imagecheck"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair/unescape"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/metrics"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/tracer"
)

// 步骤名称，同时用作进度标签
const (
	StepUnicode = "normalizing text"
	StepStyles  = "repairing styles"
	StepImages  = "validating images"
)

const (
	passUnicode = "unicode"
	passStyles  = "css"
	passImages  = "images"
)

// ImageValidator 图片引用校验
type ImageValidator interface {
	Validate(ctx context.Context, files []entity.GeneratedFile, opts imagecheck.Options) (*imagecheck.Report, []entity.GeneratedFile, error)
}

// Pipeline 修复流水线
type Pipeline struct {
	images  ImageValidator
	autoFix bool
}

// NewPipeline 创建修复流水线，images 为 nil 时跳过图片校验
func NewPipeline(images ImageValidator, autoFix bool) *Pipeline {
	return &Pipeline{images: images, autoFix: autoFix}
}

// Run 依次执行各步骤，每步开始前回调 onStep
func (p *Pipeline) Run(ctx context.Context, files []entity.GeneratedFile, onStep func(string)) ([]entity.GeneratedFile, *entity.RepairReport, error) {
	ctx, span := tracer.Start(ctx, "repair.Pipeline.Run")
	defer span.End()

	if onStep == nil {
		onStep = func(string) {}
	}
	report := &entity.RepairReport{}
	out := make([]entity.GeneratedFile, len(files))
	copy(out, files)

	onStep(StepUnicode)
	report.UnicodeFixed = NormalizeFiles(out)
	if report.UnicodeFixed > 0 {
		metrics.RepairFixes.WithLabelValues(passUnicode).Add(float64(report.UnicodeFixed))
	}

	if err := ctx.Err(); err != nil {
		return files, report, err
	}

	onStep(StepStyles)
	report.StyleIssues = RepairStyles(out)

	if p.images != nil {
		if err := ctx.Err(); err != nil {
			return files, report, err
		}
		onStep(StepImages)
		imgReport, fixed, err := p.images.Validate(ctx, out, imagecheck.Options{AutoFix: p.autoFix})
		switch {
		case err != nil && ctx.Err() != nil:
			return files, report, ctx.Err()
		case err != nil:
			logger.Warn(ctx, "image validation failed", "error", err)
			report.Failures = append(report.Failures, fmt.Sprintf("%s: %v", passImages, err))
		default:
			out = fixed
			report.ImagesChecked = imgReport.Checked
			report.BrokenImages = imgReport.Broken
			report.ImagesReplaced = imgReport.Replaced
			report.Failures = append(report.Failures, imgReport.Failures...)
			for _, b := range imgReport.Broken {
				metrics.RepairIssues.WithLabelValues(passImages, string(b.Reason)).Inc()
			}
			if imgReport.Replaced > 0 {
				metrics.RepairFixes.WithLabelValues(passImages).Add(float64(imgReport.Replaced))
			}
		}
	}

	logger.Info(ctx, "repair pipeline finished",
		"files", len(out),
		"unicode_fixed", report.UnicodeFixed,
		"style_issues", len(report.StyleIssues),
		"images_checked", report.ImagesChecked,
		"images_broken", len(report.BrokenImages),
		"images_replaced", report.ImagesReplaced,
	)
	return out, report, nil
}

// NormalizeFiles 原地还原未锁定文件中的 Unicode 转义，返回解码的序列数
func NormalizeFiles(files []entity.GeneratedFile) int {
	total := 0
	for i := range files {
		if files[i].Locked {
			continue
		}
		if n := unescape.Count(files[i].Content); n > 0 {
			files[i].Content = unescape.Normalize(files[i].Content)
			total += n
		}
	}
	return total
}

// RepairStyles 原地修复未锁定的样式文件；锁定文件只报告问题
func RepairStyles(files []entity.GeneratedFile) []entity.StyleIssue {
	var all []entity.StyleIssue
	for i := range files {
		f := &files[i]
		if !cssvar.Applies(f.Path) {
			continue
		}
		issues := cssvar.Validate(f.Content)
		if len(issues) == 0 {
			continue
		}
		if !f.Locked {
			var applied []entity.StyleIssue
			f.Content, applied = cssvar.Fix(f.Content, issues)
			metrics.RepairFixes.WithLabelValues(passStyles).Add(float64(len(applied)))
		}
		for _, issue := range issues {
			issue.File = f.Path
			all = append(all, issue)
			metrics.RepairIssues.WithLabelValues(passStyles, string(issue.Kind)).Inc()
		}
	}
	return all
}

// Summary 报告摘要，修复完成后作为 thinking 事件发送
func Summary(r *entity.RepairReport) string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("unicode=%d styles=%d images=%d/%d replaced=%d",
		r.UnicodeFixed, len(r.StyleIssues), len(r.BrokenImages), r.ImagesChecked, r.ImagesReplaced)
}
