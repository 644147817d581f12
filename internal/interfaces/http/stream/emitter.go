// Package stream 把进度事件按 SSE 格式写给客户端，帧编码使用 gin-contrib/sse
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-contrib/sse"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/orchestrator"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/metrics"
)

// ErrStreamClosed 终止事件已写出或客户端已断开
var ErrStreamClosed = errors.New("stream closed")

// ErrFlushUnsupported ResponseWriter 不支持即时刷新
var ErrFlushUnsupported = errors.New("response writer does not support flushing")

// Emitter 单个请求的 SSE 输出，事件按提交顺序串行写出，每个事件写完立即刷新
type Emitter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	closed  bool

	closeOnce sync.Once
}

var _ orchestrator.EventSink = (*Emitter)(nil)

// New 写出响应头并开始监听 ctx；ctx 结束（客户端断开）后 Emitter 视为关闭
func New(ctx context.Context, w http.ResponseWriter) (*Emitter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrFlushUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	e := &Emitter{w: w, flusher: flusher}
	metrics.ActiveStreams.Inc()
	context.AfterFunc(ctx, e.Close)
	return e, nil
}

// Emit 写出一个事件；终止事件写出后关闭
func (e *Emitter) Emit(kind entity.EventKind, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", kind, err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrStreamClosed
	}
	err = sse.Encode(e.w, sse.Event{Event: string(kind), Data: json.RawMessage(data)})
	if err == nil {
		e.flusher.Flush()
	}
	terminal := kind.IsTerminal()
	e.mu.Unlock()

	if err != nil {
		e.Close()
		return fmt.Errorf("write %s event: %w", kind, err)
	}
	if terminal {
		e.Close()
	}
	return nil
}

// Complete 写出 complete 事件并关闭
func (e *Emitter) Complete(payload any) error {
	return e.Emit(entity.EventComplete, payload)
}

// Fail 写出 error 事件并关闭
func (e *Emitter) Fail(payload any) error {
	return e.Emit(entity.EventError, payload)
}

// Closed 是否已关闭
func (e *Emitter) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Close 关闭 Emitter，可重复调用
func (e *Emitter) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()
		metrics.ActiveStreams.Dec()
	})
}
