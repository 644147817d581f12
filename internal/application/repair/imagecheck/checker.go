// Package imagecheck 探测生成文件中的图片引用并可选地替换失效图片
package imagecheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/logger"
	"github.com/Jakeminator123/sajtmaskin-sub013/pkg/tracer"
)

const (
	defaultTimeout     = 5 * time.Second
	defaultConcurrency = 8
)

// StockPhotoFinder 图库检索，按关键词返回一张替换图片地址
type StockPhotoFinder interface {
	FindPhoto(ctx context.Context, query string) (string, error)
}

// Config 探测配置
type Config struct {
	Timeout     time.Duration
	Concurrency int
}

// Options 单次校验选项
type Options struct {
	AutoFix bool
}

// Report 校验结果
type Report struct {
	Checked  int                     `json:"checked"`
	Broken   []entity.BrokenImageRef `json:"broken"`
	Replaced int                     `json:"replaced"`
	Failures []string                `json:"failures,omitempty"`
}

// Checker 图片引用校验器
type Checker struct {
	client      *http.Client
	stock       StockPhotoFinder
	timeout     time.Duration
	concurrency int
}

// New 创建校验器；stock 为 nil 时不做替换
func New(client *http.Client, stock StockPhotoFinder, cfg Config) *Checker {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Checker{
		client:      client,
		stock:       stock,
		timeout:     cfg.Timeout,
		concurrency: cfg.Concurrency,
	}
}

// CanFix 是否配置了图库
func (c *Checker) CanFix() bool {
	return c.stock != nil
}

// Validate 探测全部图片引用，AutoFix 时替换失效引用。
// 返回的文件是副本；锁定文件会被扫描但不会被改写。
func (c *Checker) Validate(ctx context.Context, files []entity.GeneratedFile, opts Options) (*Report, []entity.GeneratedFile, error) {
	ctx, span := tracer.Start(ctx, "imagecheck.Validate")
	defer span.End()

	refs := extract(files)
	report := &Report{Checked: len(refs)}
	out := make([]entity.GeneratedFile, len(files))
	copy(out, files)
	if len(refs) == 0 {
		return report, out, nil
	}

	results := make([]*entity.BrokenImageRef, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			broken, err := c.reach(gctx, ref)
			if err != nil {
				return err
			}
			results[i] = broken
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		tracer.Fail(span, err)
		return nil, nil, err
	}

	for _, r := range results {
		if r != nil {
			report.Broken = append(report.Broken, *r)
		}
	}

	if opts.AutoFix && c.stock != nil {
		for i := range report.Broken {
			c.replace(ctx, &report.Broken[i], out, report)
		}
	}

	logger.Info(ctx, "image references checked",
		"checked", report.Checked,
		"broken", len(report.Broken),
		"replaced", report.Replaced,
	)
	return report, out, nil
}

func (c *Checker) replace(ctx context.Context, broken *entity.BrokenImageRef, files []entity.GeneratedFile, report *Report) {
	query := keyword(broken.URL, files)
	replacement, err := c.stock.FindPhoto(ctx, query)
	if err != nil {
		logger.Warn(ctx, "stock photo lookup failed", "query", query, "error", err)
		report.Failures = append(report.Failures, fmt.Sprintf("%s: %v", broken.URL, err))
		return
	}
	if replacement == "" {
		return
	}

	changed := false
	for i := range files {
		if files[i].Locked || !strings.Contains(files[i].Content, broken.URL) {
			continue
		}
		if out, n := replaceURL(files[i].Content, broken.URL, replacement); n > 0 {
			files[i].Content = out
			changed = true
		}
	}
	if changed {
		broken.Replacement = replacement
		report.Replaced++
	}
}

// reach 检测单个地址，可访问时返回 nil；只有父上下文取消时返回 error
func (c *Checker) reach(ctx context.Context, ref reference) (*entity.BrokenImageRef, error) {
	broken := func(reason entity.ImageFailureReason, status int) *entity.BrokenImageRef {
		return &entity.BrokenImageRef{URL: ref.URL, File: ref.File, Reason: reason, StatusCode: status}
	}
	if isHallucinated(ref.URL) {
		return broken(entity.ImageReasonHallucinated, 0), nil
	}

	resp, err := c.request(ctx, http.MethodHead, ref.URL)
	if err == nil && fallbackToGet(resp.StatusCode) {
		resp.Body.Close()
		resp, err = c.request(ctx, http.MethodGet, ref.URL)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isTimeout(err) {
			return broken(entity.ImageReasonTimeout, 0), nil
		}
		return broken(entity.ImageReasonNetwork, 0), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return broken(entity.ImageReasonHTTPError, resp.StatusCode), nil
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(strings.ToLower(ct), "image/") {
		return broken(entity.ImageReasonNotImage, resp.StatusCode), nil
	}
	return nil, nil
}

func (c *Checker) request(ctx context.Context, method, url string) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// fallbackToGet 部分图床不支持 HEAD
func fallbackToGet(status int) bool {
	return status == http.StatusMethodNotAllowed || status == http.StatusForbidden || status == http.StatusNotImplemented
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
