package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/credit"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/config"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/metrics"
)

const sourceWorkflow = "workflow"

// EventSink 进度事件输出；Complete 与 Fail 之后的调用返回错误
type EventSink interface {
	Emit(kind entity.EventKind, payload any) error
	Complete(payload any) error
	Fail(payload any) error
}

// CreditGate 运行器使用的额度操作
type CreditGate interface {
	CanProceed(ctx context.Context, c credit.Caller, action credit.Action, cost int) (credit.Decision, error)
	Deduct(ctx context.Context, userID string, amount int, reason, source string) (*entity.CreditTransaction, error)
	MarkGuestUsed(ctx context.Context, guestID string, action credit.Action) error
}

// CompletionPublisher 运行结束事件发布
type CompletionPublisher interface {
	PublishGenerationCompleted(ctx context.Context, evt *entity.GenerationCompletedEvent) error
}

// ThinkingPayload thinking 事件
type ThinkingPayload struct {
	Message string `json:"message"`
}

// ProgressPayload progress 事件
type ProgressPayload struct {
	Step  string `json:"step"`
	Index int    `json:"index"`
}

// CodePayload code 事件
type CodePayload struct {
	Files      []entity.GeneratedFile `json:"files"`
	PreviewURL string                 `json:"previewUrl,omitempty"`
	SessionID  string                 `json:"sessionId,omitempty"`
	VersionID  string                 `json:"versionId,omitempty"`
}

// CompletePayload complete 事件，文件已在 code 事件中发送
type CompletePayload struct {
	*entity.WorkflowResult
	FileCount int  `json:"fileCount"`
	Balance   *int `json:"balance,omitempty"`
}

// ErrorPayload error 事件
type ErrorPayload struct {
	Error  string            `json:"error"`
	Intent entity.WorkIntent `json:"intent,omitempty"`
	Steps  []string          `json:"steps"`
}

// Runner 串联额度检查、编排执行、事件输出与结算
type Runner struct {
	orch      *Orchestrator
	gate      CreditGate
	publisher CompletionPublisher
	timeouts  map[string]time.Duration
	now       func() time.Time
}

// NewRunner 创建运行器，publisher 可为 nil
func NewRunner(orch *Orchestrator, gate CreditGate, publisher CompletionPublisher, cfg config.WorkflowConfig) *Runner {
	return &Runner{
		orch:      orch,
		gate:      gate,
		publisher: publisher,
		timeouts:  cfg.Timeouts,
		now:       time.Now,
	}
}

// ActionFor 请求对应的计费动作
func ActionFor(req *entity.WorkflowRequest) credit.Action {
	if req.IsRefinement() {
		return credit.ActionRefine
	}
	return credit.ActionGenerate
}

// Prepare 分类并检查额度；策略拒绝返回 Decision.Err()，调用方应在打开事件流之前返回
func (r *Runner) Prepare(ctx context.Context, caller credit.Caller, req *entity.WorkflowRequest) (*Plan, credit.Decision, error) {
	plan, err := r.orch.Plan(ctx, req)
	if err != nil {
		return nil, credit.Decision{}, err
	}

	decision, err := r.gate.CanProceed(ctx, caller, ActionFor(req), plan.Cost)
	if err != nil {
		return nil, credit.Decision{}, err
	}
	if !decision.Allowed {
		metrics.PolicyRejections.WithLabelValues(decision.Reason).Inc()
		logger.Info(ctx, "workflow rejected by credit gate",
			"intent", plan.Intent(),
			"cost", plan.Cost,
			"reason", decision.Reason,
		)
		return plan, decision, decision.Err()
	}
	return plan, decision, nil
}

// Stream 执行计划并把进度写入 sink，成功后结算额度
func (r *Runner) Stream(ctx context.Context, caller credit.Caller, plan *Plan, sink EventSink) *entity.WorkflowResult {
	start := r.now()
	runCtx, cancel := context.WithTimeout(ctx, r.timeoutFor(plan.Intent()))
	defer cancel()

	steps := 0
	res := r.orch.Execute(runCtx, plan, Callbacks{
		OnThinking: func(msg string) {
			_ = sink.Emit(entity.EventThinking, ThinkingPayload{Message: msg})
		},
		OnProgress: func(step string) {
			steps++
			_ = sink.Emit(entity.EventProgress, ProgressPayload{Step: step, Index: steps})
		},
	})

	// 客户端断开不影响已完成工作的结算与记录
	bgCtx := context.WithoutCancel(ctx)
	if !res.Success {
		_ = sink.Fail(ErrorPayload{Error: res.Error, Intent: res.Intent, Steps: res.Steps})
		r.publish(bgCtx, caller, res, start)
		return res
	}

	if len(res.Files) > 0 {
		_ = sink.Emit(entity.EventCode, CodePayload{
			Files:      res.Files,
			PreviewURL: res.PreviewURL,
			SessionID:  res.SessionID,
			VersionID:  res.VersionID,
		})
	}

	balance := r.settle(bgCtx, caller, plan, res)

	summary := *res
	summary.Files = nil
	_ = sink.Complete(CompletePayload{WorkflowResult: &summary, FileCount: len(res.Files), Balance: balance})
	r.publish(bgCtx, caller, res, start)
	return res
}

// settle 成功后扣费或标记游客额度，失败只记录日志
func (r *Runner) settle(ctx context.Context, caller credit.Caller, plan *Plan, res *entity.WorkflowResult) *int {
	if plan.Cost <= 0 {
		return nil
	}

	action := ActionFor(plan.Request)
	if caller.IsGuest() {
		if err := r.gate.MarkGuestUsed(ctx, caller.GuestSessionID, action); err != nil {
			logger.Error(ctx, "failed to mark guest usage", err, "guest", caller.GuestSessionID)
		}
		return nil
	}

	txn, err := r.gate.Deduct(ctx, caller.UserID, plan.Cost, "workflow:"+string(res.Intent), sourceWorkflow)
	if err != nil {
		logger.Error(ctx, "failed to deduct credits", err, "user_id", caller.UserID, "cost", plan.Cost)
		return nil
	}
	balance := txn.BalanceAfter
	return &balance
}

func (r *Runner) publish(ctx context.Context, caller credit.Caller, res *entity.WorkflowResult, start time.Time) {
	if r.publisher == nil || res.SessionID == "" {
		return
	}
	callerID := caller.UserID
	if callerID == "" {
		callerID = "guest:" + caller.GuestSessionID
	}
	evt := &entity.GenerationCompletedEvent{
		RunID:      uuid.NewString(),
		SessionID:  res.SessionID,
		VersionID:  res.VersionID,
		CallerID:   callerID,
		Intent:     res.Intent,
		Cost:       res.Cost,
		Success:    res.Success,
		PreviewURL: res.PreviewURL,
		FileCount:  len(res.Files),
		Error:      res.Error,
		DurationMs: r.now().Sub(start).Milliseconds(),
		FinishedAt: r.now(),
	}
	if err := r.publisher.PublishGenerationCompleted(ctx, evt); err != nil {
		logger.Warn(ctx, "failed to publish generation event", "session_id", res.SessionID, "error", err)
	}
}

func (r *Runner) timeoutFor(intent entity.WorkIntent) time.Duration {
	if d, ok := r.timeouts[intent.TimeoutClass()]; ok && d > 0 {
		return d
	}
	return 5 * time.Minute
}
