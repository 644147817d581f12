package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/credit"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/orchestrator"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair/imagecheck"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/repository"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/interfaces/http/middleware"
	apperrors "github.com/Jakeminator123/sajtmaskin-sub013/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	guest  = credit.Caller{GuestSessionID: "g-1"}
	member = credit.Caller{UserID: "u-1"}
)

func withCaller(caller credit.Caller) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetCaller(c, caller)
		c.Next()
	}
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

type fakeRunner struct {
	prepare func(credit.Caller, *entity.WorkflowRequest) (*orchestrator.Plan, credit.Decision, error)
	streams int
}

func (f *fakeRunner) Prepare(_ context.Context, c credit.Caller, req *entity.WorkflowRequest) (*orchestrator.Plan, credit.Decision, error) {
	return f.prepare(c, req)
}

func (f *fakeRunner) Stream(_ context.Context, _ credit.Caller, plan *orchestrator.Plan, sink orchestrator.EventSink) *entity.WorkflowResult {
	f.streams++
	res := &entity.WorkflowResult{Intent: plan.Intent(), Message: "hello", Success: true, Steps: []string{}}
	_ = sink.Emit(entity.EventThinking, orchestrator.ThinkingPayload{Message: "thinking"})
	_ = sink.Complete(orchestrator.CompletePayload{WorkflowResult: res})
	return res
}

func TestWorkflowStreamRejectsBeforeStreaming(t *testing.T) {
	balance := 1
	runner := &fakeRunner{prepare: func(credit.Caller, *entity.WorkflowRequest) (*orchestrator.Plan, credit.Decision, error) {
		d := credit.Decision{Cost: 2, Balance: &balance, RequireCredits: true, Reason: credit.ReasonInsufficient}
		return &orchestrator.Plan{}, d, d.Err()
	}}
	r := gin.New()
	r.POST("/stream", withCaller(member), NewWorkflowHandler(runner).Stream)

	w := do(r, http.MethodPost, "/stream", `{"prompt":"build a bakery site"}`)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	body := decode(t, w)
	assert.Equal(t, true, body["requireCredits"])
	credits := body["credits"].(map[string]any)
	assert.EqualValues(t, 2, credits["cost"])
	assert.Equal(t, false, credits["canProceed"])
	assert.Zero(t, runner.streams)
}

func TestWorkflowStreamGuestNeedsAuth(t *testing.T) {
	runner := &fakeRunner{prepare: func(credit.Caller, *entity.WorkflowRequest) (*orchestrator.Plan, credit.Decision, error) {
		d := credit.Decision{Cost: 1, RequireAuth: true, Reason: credit.ReasonGuestUsed}
		return &orchestrator.Plan{}, d, d.Err()
	}}
	r := gin.New()
	r.POST("/stream", withCaller(guest), NewWorkflowHandler(runner).Stream)

	w := do(r, http.MethodPost, "/stream", `{"prompt":"again"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, true, decode(t, w)["requireAuth"])
}

func TestWorkflowStreamWritesEvents(t *testing.T) {
	var gotReq *entity.WorkflowRequest
	runner := &fakeRunner{prepare: func(_ credit.Caller, req *entity.WorkflowRequest) (*orchestrator.Plan, credit.Decision, error) {
		gotReq = req
		return &orchestrator.Plan{
			Request:        req,
			Classification: &orchestrator.Classification{Intent: entity.IntentChatResponse},
		}, credit.Decision{Allowed: true}, nil
	}}
	r := gin.New()
	r.POST("/stream", withCaller(guest), NewWorkflowHandler(runner).Stream)

	w := do(r, http.MethodPost, "/stream", `{"prompt":"hi","quality":"pro"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "guest:g-1", gotReq.CallerID)
	assert.Equal(t, entity.QualityPro, gotReq.Quality)

	body := w.Body.String()
	thinking := strings.Index(body, "event:thinking\n")
	complete := strings.Index(body, "event:complete\n")
	require.GreaterOrEqual(t, thinking, 0)
	assert.Greater(t, complete, thinking)
	assert.Equal(t, 1, runner.streams)
}

func TestWorkflowStreamInvalidRequest(t *testing.T) {
	runner := &fakeRunner{prepare: func(credit.Caller, *entity.WorkflowRequest) (*orchestrator.Plan, credit.Decision, error) {
		return nil, credit.Decision{}, apperrors.ErrInvalidParam.WithDetail("unknown quality tier")
	}}
	r := gin.New()
	r.POST("/stream", withCaller(guest), NewWorkflowHandler(runner).Stream)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/stream", `{}`).Code)
	w := do(r, http.MethodPost, "/stream", `{"prompt":"x","quality":"ultra"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(apperrors.CodeInvalidParam), decode(t, w)["error"].(map[string]any)["error_code"])
}

type fakeGate struct {
	decision credit.Decision
	err      error
	cost     int
	deducted []int
	txs      []*entity.CreditTransaction
}

func (f *fakeGate) GetCost(credit.Action, credit.CostContext) int { return f.cost }

func (f *fakeGate) CanProceed(context.Context, credit.Caller, credit.Action, int) (credit.Decision, error) {
	return f.decision, f.err
}

func (f *fakeGate) Check(ctx context.Context, c credit.Caller, a credit.Action, cc credit.CostContext) (credit.Decision, error) {
	return f.CanProceed(ctx, c, a, f.GetCost(a, cc))
}

func (f *fakeGate) Deduct(_ context.Context, userID string, amount int, _, _ string) (*entity.CreditTransaction, error) {
	f.deducted = append(f.deducted, amount)
	return &entity.CreditTransaction{UserID: userID, Amount: -amount, BalanceAfter: 10 - amount}, nil
}

func (f *fakeGate) Transactions(_ context.Context, _ string, p repository.Pagination) (*repository.PagedResult[*entity.CreditTransaction], error) {
	return repository.NewPagedResult(f.txs, int64(len(f.txs)), p), nil
}

func TestCreditCheck(t *testing.T) {
	balance := 5
	gate := &fakeGate{decision: credit.Decision{Allowed: true, Reason: credit.ReasonOK, Cost: 3, Balance: &balance}}
	r := gin.New()
	r.GET("/check", withCaller(member), NewCreditHandler(gate).Check)

	w := do(r, http.MethodGet, "/check?action=generate&quality=pro", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, true, data["canProceed"])
	assert.EqualValues(t, 5, data["balance"])

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/check?action=teleport", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/check", "").Code)
}

func TestCreditTransactionsPaged(t *testing.T) {
	gate := &fakeGate{txs: []*entity.CreditTransaction{{ID: "t1", UserID: "u-1", Amount: -2}}}
	r := gin.New()
	r.GET("/tx", withCaller(member), NewCreditHandler(gate).Transactions)

	w := do(r, http.MethodGet, "/tx?page=1&page_size=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["data"], 1)
	assert.EqualValues(t, 1, body["meta"].(map[string]any)["total"])
}

type chatFunc func(ctx context.Context, prompt string) (string, error)

func (f chatFunc) Reply(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }

func TestChatDeductsAfterReply(t *testing.T) {
	gate := &fakeGate{cost: 1, decision: credit.Decision{Allowed: true, Cost: 1}}
	chat := chatFunc(func(_ context.Context, prompt string) (string, error) { return "echo: " + prompt, nil })
	r := gin.New()
	r.POST("/chat", withCaller(member), NewChatHandler(chat, gate).Reply)

	w := do(r, http.MethodPost, "/chat", `{"message":"hej"}`)

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "echo: hej", data["reply"])
	assert.EqualValues(t, 9, data["balance"])
	assert.Equal(t, []int{1}, gate.deducted)
}

func TestChatFailureIsNotCharged(t *testing.T) {
	gate := &fakeGate{cost: 1, decision: credit.Decision{Allowed: true, Cost: 1}}
	chat := chatFunc(func(context.Context, string) (string, error) { return "", errors.New("all chat models failed") })
	r := gin.New()
	r.POST("/chat", withCaller(member), NewChatHandler(chat, gate).Reply)

	w := do(r, http.MethodPost, "/chat", `{"message":"hej"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, gate.deducted)
}

func TestChatGuestRejected(t *testing.T) {
	gate := &fakeGate{cost: 1, decision: credit.Decision{Cost: 1, RequireAuth: true, Reason: credit.ReasonGuestAuth}}
	called := false
	chat := chatFunc(func(context.Context, string) (string, error) { called = true; return "", nil })
	r := gin.New()
	r.POST("/chat", withCaller(guest), NewChatHandler(chat, gate).Reply)

	w := do(r, http.MethodPost, "/chat", `{"message":"hej"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, true, decode(t, w)["requireAuth"])
	assert.False(t, called)
}

func TestRepairCSS(t *testing.T) {
	r := gin.New()
	r.POST("/css", NewRepairHandler(nil).CSS)

	w := do(r, http.MethodPost, "/css", `{"css":":root {\n  --brand: ;\n}\n","fix":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, false, data["valid"])
	assert.Len(t, data["issues"], 1)
	assert.Contains(t, data["fixed"], "--brand: initial;")

	w = do(r, http.MethodPost, "/css", `{"css":":root {\n  --brand: red;\n}\n"}`)
	data = decode(t, w)["data"].(map[string]any)
	assert.Equal(t, true, data["valid"])
	assert.Empty(t, data["issues"])
	assert.NotContains(t, data, "fixed")
}

func TestRepairUnicode(t *testing.T) {
	r := gin.New()
	r.POST("/unicode", NewRepairHandler(nil).Unicode)

	w := do(r, http.MethodPost, "/unicode", `{"content":"Hej v\\u00e4rlden"}`)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "Hej världen", data["content"])
	assert.Equal(t, true, data["changed"])
	assert.EqualValues(t, 1, data["decoded"])
}

type fakeImages struct {
	report *imagecheck.Report
	canFix bool
}

func (f *fakeImages) Validate(_ context.Context, files []entity.GeneratedFile, _ imagecheck.Options) (*imagecheck.Report, []entity.GeneratedFile, error) {
	return f.report, files, nil
}

func (f *fakeImages) CanFix() bool { return f.canFix }

func TestRepairImages(t *testing.T) {
	r := gin.New()
	r.POST("/images", NewRepairHandler(nil).Images)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodPost, "/images", `{"files":[{"path":"a.tsx","content":""}]}`).Code)

	images := &fakeImages{report: &imagecheck.Report{
		Checked: 2,
		Broken:  []entity.BrokenImageRef{{URL: "https://x.test/a.png", File: "a.tsx", Reason: entity.ImageReasonHTTPError, StatusCode: 404}},
	}}
	r = gin.New()
	r.POST("/images", NewRepairHandler(images).Images)

	w := do(r, http.MethodPost, "/images", `{"files":[{"path":"a.tsx","content":"<img src=\"https://x.test/a.png\"/>"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.EqualValues(t, 2, data["checked"])
	assert.Len(t, data["broken"], 1)
	assert.Equal(t, false, data["canFix"])
	assert.NotContains(t, data, "files")

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/images", `{"files":[]}`).Code)
}

type fakeRuns struct {
	runs map[string]*entity.GenerationRun
}

func (f *fakeRuns) Upsert(context.Context, *entity.GenerationRun) error { return nil }

func (f *fakeRuns) GetBySessionID(_ context.Context, id string) (*entity.GenerationRun, error) {
	return f.runs[id], nil
}

func (f *fakeRuns) ListByCaller(context.Context, string, repository.Pagination) (*repository.PagedResult[*entity.GenerationRun], error) {
	return nil, nil
}

func TestGenerationLookup(t *testing.T) {
	runs := &fakeRuns{runs: map[string]*entity.GenerationRun{
		"s1": {ID: "r1", SessionID: "s1", Status: entity.GenerationStatusCompleted},
	}}
	r := gin.New()
	r.GET("/generations/:sessionId", NewGenerationHandler(runs).GetBySessionID)

	w := do(r, http.MethodGet, "/generations/s1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r1", decode(t, w)["data"].(map[string]any)["id"])

	w = do(r, http.MethodGet, "/generations/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(apperrors.CodeGenerationNotFound), decode(t, w)["error"].(map[string]any)["error_code"])
}

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	ok := checkerFunc(func(context.Context) error { return nil })
	down := checkerFunc(func(context.Context) error { return errors.New("connection refused") })

	r := gin.New()
	h := NewHealthHandler(ok, ok, "1.0.0")
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, "1.0.0", decode(t, do(r, http.MethodGet, "/health", ""))["version"])

	r = gin.New()
	r.GET("/ready", NewHealthHandler(ok, down, "").Ready)
	w := do(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	checks := decode(t, w)["checks"].(map[string]any)
	assert.Equal(t, "error", checks["redis"].(map[string]any)["status"])

	r = gin.New()
	r.GET("/ready", NewHealthHandler(nil, ok, "").Ready)
	w = do(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "missing", decode(t, w)["checks"].(map[string]any)["postgres"].(map[string]any)["status"])
}
