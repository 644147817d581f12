// Package orchestrator 对单个请求做意图分类并按意图依次调用协作服务
//
// 状态只前进不回退：classifying → executing → validating → done。
// 协作服务失败立即以原始错误结束运行，不重试；修复流程的失败只记录不终止。
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/credit"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	apperrors "github.com/Jakeminator123/sajtmaskin-sub013/pkg/errors"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/metrics"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/tracer"
)

// 进度标签
const (
	StepSearching       = "searching web"
	StepGeneratingImage = "generating images"
	StepGeneratingCode  = "generating code"
)

const defaultSearchLimit = 5

// Callbacks 运行过程回调，均可为 nil
type Callbacks struct {
	OnThinking func(message string)
	OnProgress func(step string)
	// Authorize 分类完成、执行之前调用；返回 error 时运行以失败结束且不调用任何协作服务
	Authorize func(ctx context.Context, intent entity.WorkIntent, cost int) error
}

// Collaborators 外部协作服务，未配置的为 nil
type Collaborators struct {
	Codegen CodeGenerator
	Search  WebSearcher
	Images  ImageGenerator
	Chat    ChatResponder
}

// Plan 分类结果与计价
type Plan struct {
	Request        *entity.WorkflowRequest
	Classification *Classification
	Cost           int
}

// Intent 计划的意图
func (p *Plan) Intent() entity.WorkIntent {
	return p.Classification.Intent
}

// Orchestrator 工作流编排器
type Orchestrator struct {
	classifier  Classifier
	collab      Collaborators
	repairer    Repairer
	searchLimit int
}

// New 创建编排器，repairer 为 nil 时跳过修复
func New(classifier Classifier, collab Collaborators, repairer Repairer) *Orchestrator {
	if classifier == nil {
		classifier = HeuristicClassifier{}
	}
	return &Orchestrator{
		classifier:  classifier,
		collab:      collab,
		repairer:    repairer,
		searchLimit: defaultSearchLimit,
	}
}

// Plan 校验请求并分类、计价
func (o *Orchestrator) Plan(ctx context.Context, req *entity.WorkflowRequest) (*Plan, error) {
	ctx, span := tracer.Start(ctx, "orchestrator.Plan")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, apperrors.ErrInvalidParam.WithDetail(err.Error())
	}

	c, err := o.classifier.Classify(ctx, req)
	if err != nil {
		tracer.Fail(span, err)
		return nil, apperrors.Wrap(err, apperrors.CodeClassificationFailed, "intent classification failed")
	}

	metrics.IntentClassifications.WithLabelValues(string(c.Intent), c.Source).Inc()
	span.SetAttributes(
		attribute.String("workflow.intent", string(c.Intent)),
		attribute.String("workflow.classifier", c.Source),
	)
	logger.Info(ctx, "request classified",
		"intent", c.Intent,
		"classifier", c.Source,
		"refinement", req.IsRefinement(),
	)

	return &Plan{Request: req, Classification: c, Cost: credit.IntentCost(c.Intent)}, nil
}

// Run 分类、授权并执行；任何失败都体现在结果中
func (o *Orchestrator) Run(ctx context.Context, req *entity.WorkflowRequest, cb Callbacks) *entity.WorkflowResult {
	plan, err := o.Plan(ctx, req)
	if err != nil {
		return (&entity.WorkflowResult{Steps: []string{}}).Fail(err)
	}
	if cb.Authorize != nil {
		if err := cb.Authorize(ctx, plan.Intent(), plan.Cost); err != nil {
			res := &entity.WorkflowResult{Intent: plan.Intent(), Cost: plan.Cost, Steps: []string{}}
			return res.Fail(err)
		}
	}
	return o.Execute(ctx, plan, cb)
}

// Execute 按计划依次执行各步骤
func (o *Orchestrator) Execute(ctx context.Context, plan *Plan, cb Callbacks) *entity.WorkflowResult {
	ctx, span := tracer.StartWith(ctx, "orchestrator.Execute",
		attribute.String("workflow.intent", string(plan.Intent())),
	)
	defer span.End()

	start := time.Now()
	res := &entity.WorkflowResult{Intent: plan.Intent(), Cost: plan.Cost, Steps: []string{}}
	run := &execution{
		ctx:  ctx,
		plan: plan,
		res:  res,
		cb:   cb,
	}

	if c := plan.Classification; c.Reasoning != "" {
		run.think(c.Reasoning)
	}

	err := o.execute(run)
	if err == nil {
		res.Success = true
		err = res.Validate()
	}
	status := "success"
	if err != nil {
		status = "failed"
		res.Fail(err)
		tracer.Fail(span, err)
		logger.Warn(ctx, "workflow failed", "intent", res.Intent, "error", err)
	}

	metrics.WorkflowRunsTotal.WithLabelValues(string(res.Intent), status).Inc()
	metrics.WorkflowDuration.WithLabelValues(string(res.Intent)).Observe(time.Since(start).Seconds())
	return res
}

type execution struct {
	ctx  context.Context
	plan *Plan
	res  *entity.WorkflowResult
	cb   Callbacks

	images []entity.GeneratedImage
	search []entity.SearchResult
}

func (e *execution) think(msg string) {
	if e.cb.OnThinking != nil {
		e.cb.OnThinking(msg)
	}
}

func (e *execution) progress(step string) {
	e.res.Steps = append(e.res.Steps, step)
	if e.cb.OnProgress != nil {
		e.cb.OnProgress(step)
	}
}

func (o *Orchestrator) execute(e *execution) error {
	c := e.plan.Classification
	req := e.plan.Request

	switch c.Intent {
	case entity.IntentClarify:
		e.res.ClarifyQuestion = c.ClarifyQuestion
		return nil
	case entity.IntentChatResponse:
		return o.reply(e)
	}

	if c.Intent.NeedsSearch() {
		if err := o.searchWeb(e); err != nil {
			return err
		}
	}
	if c.Intent.NeedsImage() {
		if err := o.generateImage(e); err != nil {
			return err
		}
	}

	if !c.Intent.NeedsCodegen() {
		e.res.Message = summarize(e)
		return nil
	}

	if err := e.ctx.Err(); err != nil {
		return err
	}
	if o.collab.Codegen == nil {
		return fmt.Errorf("code generation: %w", ErrCollaboratorDisabled)
	}
	e.progress(StepGeneratingCode)

	cgReq := &CodegenRequest{
		Prompt:        c.CodePrompt,
		Images:        e.images,
		MediaRefs:     req.MediaRefs,
		SearchContext: e.search,
		Quality:       req.Quality,
	}
	if req.IsRefinement() {
		cgReq.SessionID = req.ExistingSessionID
		if c.Intent == entity.IntentNeedsCodeContext {
			cgReq.ExistingFiles = req.ExistingFiles
		}
	}
	out, err := o.collab.Codegen.Generate(e.ctx, cgReq)
	if err != nil {
		return err
	}

	e.res.Files = out.Files
	e.res.PreviewURL = out.PreviewURL
	e.res.SessionID = out.SessionID
	e.res.VersionID = out.VersionID

	if o.repairer != nil {
		files, report, err := o.repairer.Run(e.ctx, e.res.Files, e.progress)
		if err != nil {
			return err
		}
		e.res.Files = files
		e.res.Repair = report
		if report != nil {
			e.think("Repaired artifacts: " + repair.Summary(report))
		}
	}

	e.res.Message = fmt.Sprintf("Generated %d files", len(e.res.Files))
	return nil
}

func (o *Orchestrator) reply(e *execution) error {
	c := e.plan.Classification
	if c.ChatReply != "" {
		e.res.Message = c.ChatReply
		return nil
	}
	if o.collab.Chat == nil {
		return fmt.Errorf("chat: %w", ErrCollaboratorDisabled)
	}
	msg, err := o.collab.Chat.Reply(e.ctx, e.plan.Request.Prompt)
	if err != nil {
		return err
	}
	e.res.Message = strings.TrimSpace(msg)
	return nil
}

func (o *Orchestrator) searchWeb(e *execution) error {
	if err := e.ctx.Err(); err != nil {
		return err
	}
	if o.collab.Search == nil {
		return fmt.Errorf("web search: %w", ErrCollaboratorDisabled)
	}
	e.progress(StepSearching)
	results, err := o.collab.Search.Search(e.ctx, e.plan.Classification.SearchQuery, o.searchLimit)
	if err != nil {
		return err
	}
	e.search = results
	e.res.SearchResults = results
	return nil
}

func (o *Orchestrator) generateImage(e *execution) error {
	if err := e.ctx.Err(); err != nil {
		return err
	}
	if o.collab.Images == nil {
		return fmt.Errorf("image generation: %w", ErrCollaboratorDisabled)
	}
	e.progress(StepGeneratingImage)
	img, err := o.collab.Images.GenerateImage(e.ctx, e.plan.Classification.ImagePrompt)
	if err != nil {
		return err
	}
	e.images = append(e.images, *img)
	e.res.GeneratedImages = e.images
	return nil
}

func summarize(e *execution) string {
	switch {
	case len(e.images) > 0:
		return fmt.Sprintf("Generated %d image(s)", len(e.images))
	case len(e.search) > 0:
		var b strings.Builder
		fmt.Fprintf(&b, "Found %d result(s):", len(e.search))
		for _, r := range e.search {
			fmt.Fprintf(&b, "\n- %s (%s)", r.Title, r.URL)
		}
		return b.String()
	default:
		return "No results found"
	}
}
