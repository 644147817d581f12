// Package collaborator 实现编排流程依赖的外部服务客户端：代码生成、网页搜索、图像生成与图库检索
package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/config"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/metrics"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/tracer"
)

const maxErrorBody = 512

// StatusError 协作服务返回非 2xx
type StatusError struct {
	Collaborator string
	StatusCode   int
	Body         string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Collaborator, e.StatusCode, e.Body)
}

// httpClient 带认证头、追踪与指标的 JSON 客户端
type httpClient struct {
	name    string
	baseURL string
	headers map[string]string
	client  *http.Client
}

func newHTTPClient(name string, cfg config.CollaboratorConfig, headers map[string]string) *httpClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &httpClient{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		headers: headers,
		client:  &http.Client{Timeout: timeout},
	}
}

// do 发送 JSON 请求并解析响应；body 为 nil 时不发送请求体
func (c *httpClient) do(ctx context.Context, method, path string, body, out any) error {
	ctx, span := tracer.StartWith(ctx, "collaborator."+c.name,
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)
	defer span.End()

	start := time.Now()
	status := "error"
	defer func() {
		metrics.CollaboratorCallDuration.WithLabelValues(c.name, status).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", c.name, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		tracer.Fail(span, err)
		return fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := &StatusError{Collaborator: c.name, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		tracer.Fail(span, err)
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		tracer.Fail(span, err)
		return fmt.Errorf("decode %s response: %w", c.name, err)
	}
	return nil
}
