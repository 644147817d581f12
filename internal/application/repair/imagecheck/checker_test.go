package imagecheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

type stockFunc func(ctx context.Context, query string) (string, error)

func (f stockFunc) FindPhoto(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

func newImageServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.png", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
	})
	mux.HandleFunc("/missing.png", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	})
	mux.HandleFunc("/page.png", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
	})
	mux.HandleFunc("/nohead.jpg", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Range") != "bytes=0-0" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.WriteHeader(http.StatusPartialContent)
	})
	mux.HandleFunc("/hero.png", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("v") != "2" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
	})
	mux.HandleFunc("/slow.png", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestValidateOneBrokenOneHealthy(t *testing.T) {
	srv, _ := newImageServer(t)
	checker := New(srv.Client(), nil, Config{Timeout: time.Second})

	files := []entity.GeneratedFile{{
		Path:    "app/page.tsx",
		Content: `<img src="` + srv.URL + `/ok.png" /><img src="` + srv.URL + `/missing.png" alt="team" />`,
	}}

	report, out, err := checker.Validate(context.Background(), files, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	require.Len(t, report.Broken, 1)
	assert.Equal(t, srv.URL+"/missing.png", report.Broken[0].URL)
	assert.Equal(t, entity.ImageReasonHTTPError, report.Broken[0].Reason)
	assert.Equal(t, http.StatusNotFound, report.Broken[0].StatusCode)
	assert.Equal(t, "app/page.tsx", report.Broken[0].File)
	assert.Equal(t, 0, report.Replaced)
	assert.Equal(t, files, out)
}

func TestValidateAutoFixReplacesEverywhere(t *testing.T) {
	srv, _ := newImageServer(t)
	replacement := srv.URL + "/ok.png?stock=1"
	var queries []string
	stock := stockFunc(func(_ context.Context, query string) (string, error) {
		queries = append(queries, query)
		return replacement, nil
	})
	checker := New(srv.Client(), stock, Config{Timeout: time.Second})

	broken := srv.URL + "/missing.png"
	files := []entity.GeneratedFile{
		{Path: "app/page.tsx", Content: `<img alt="mountain lake" src="` + broken + `" />`},
		{Path: "app/about.tsx", Content: `<div style={{ backgroundImage: "url(` + broken + `)" }} />`},
		{Path: "app/locked.tsx", Content: `<img src="` + broken + `" />`, Locked: true},
		{Path: "app/ok.tsx", Content: `<img src="` + srv.URL + `/ok.png" />`},
	}

	report, out, err := checker.Validate(context.Background(), files, Options{AutoFix: true})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	require.Len(t, report.Broken, 1)
	assert.Equal(t, 1, report.Replaced)
	assert.Equal(t, replacement, report.Broken[0].Replacement)
	assert.Equal(t, []string{"mountain lake"}, queries)

	assert.Equal(t, `<img alt="mountain lake" src="`+replacement+`" />`, out[0].Content)
	assert.Equal(t, `<div style={{ backgroundImage: "url(`+replacement+`)" }} />`, out[1].Content)
	assert.Contains(t, out[2].Content, broken)
	assert.Equal(t, files[3], out[3])

	// 原始文件不受影响
	assert.Contains(t, files[0].Content, broken)
}

func TestAutoFixLeavesLongerURLsAlone(t *testing.T) {
	srv, _ := newImageServer(t)
	stock := stockFunc(func(context.Context, string) (string, error) {
		return "https://stock.test/new.jpg", nil
	})
	checker := New(srv.Client(), stock, Config{Timeout: time.Second})

	broken := srv.URL + "/hero.png"
	healthy := srv.URL + "/hero.png?v=2"
	files := []entity.GeneratedFile{{
		Path:    "app/page.tsx",
		Content: `<img src="` + broken + `"/><img src="` + healthy + `"/><p>See ` + broken + `.</p>`,
	}}

	report, out, err := checker.Validate(context.Background(), files, Options{AutoFix: true})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	require.Len(t, report.Broken, 1)
	assert.Equal(t, broken, report.Broken[0].URL)
	assert.Equal(t, 1, report.Replaced)
	assert.Equal(t,
		`<img src="https://stock.test/new.jpg"/><img src="`+healthy+`"/><p>See https://stock.test/new.jpg.</p>`,
		out[0].Content)
}

func TestValidateReasons(t *testing.T) {
	srv, _ := newImageServer(t)
	checker := New(srv.Client(), nil, Config{Timeout: 100 * time.Millisecond, Concurrency: 2})

	content := strings.Join([]string{
		srv.URL + "/page.png",
		srv.URL + "/slow.png",
		srv.URL + "/nohead.jpg",
		"https://example.com/hero.jpg",
		"http://127.0.0.1:1/closed.png",
	}, "\n")

	report, _, err := checker.Validate(context.Background(), []entity.GeneratedFile{{Path: "README.md", Content: content}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 5, report.Checked)

	reasons := map[string]entity.ImageFailureReason{}
	for _, b := range report.Broken {
		reasons[b.URL] = b.Reason
	}
	assert.Equal(t, map[string]entity.ImageFailureReason{
		srv.URL + "/page.png":           entity.ImageReasonNotImage,
		srv.URL + "/slow.png":           entity.ImageReasonTimeout,
		"https://example.com/hero.jpg":  entity.ImageReasonHallucinated,
		"http://127.0.0.1:1/closed.png": entity.ImageReasonNetwork,
	}, reasons)

	// 报告顺序与首次出现顺序一致
	require.Len(t, report.Broken, 4)
	assert.Equal(t, srv.URL+"/page.png", report.Broken[0].URL)
	assert.Equal(t, "http://127.0.0.1:1/closed.png", report.Broken[3].URL)
}

func TestValidateDeduplicatesRequests(t *testing.T) {
	srv, hits := newImageServer(t)
	checker := New(srv.Client(), nil, Config{})

	u := srv.URL + "/ok.png"
	files := []entity.GeneratedFile{
		{Path: "a.tsx", Content: u + " " + u},
		{Path: "b.css", Content: "background: url(" + u + ");"},
	}
	report, _, err := checker.Validate(context.Background(), files, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Empty(t, report.Broken)
	assert.Equal(t, int32(1), hits.Load())
}

func TestValidateStockFailureKeepsOriginal(t *testing.T) {
	srv, _ := newImageServer(t)
	stock := stockFunc(func(context.Context, string) (string, error) {
		return "", errors.New("quota exceeded")
	})
	checker := New(srv.Client(), stock, Config{})

	files := []entity.GeneratedFile{{Path: "p.tsx", Content: srv.URL + "/missing.png"}}
	report, out, err := checker.Validate(context.Background(), files, Options{AutoFix: true})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Replaced)
	assert.Len(t, report.Failures, 1)
	assert.Equal(t, files, out)
}

func TestValidateCancelledContext(t *testing.T) {
	srv, _ := newImageServer(t)
	checker := New(srv.Client(), nil, Config{Timeout: 5 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := checker.Validate(ctx, []entity.GeneratedFile{{Path: "p", Content: srv.URL + "/ok.png"}}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeywordFallsBackToFileName(t *testing.T) {
	assert.Equal(t, "coffee shop", keyword("https://cdn.test/img/coffee-shop-photo.jpg", nil))
	assert.Equal(t, "website background", keyword("https://cdn.test/1234.jpg", nil))
}

func TestExtractSkipsNonImages(t *testing.T) {
	refs := extract([]entity.GeneratedFile{{
		Path:    "x",
		Content: `<a href="https://vercel.com/docs">docs</a> <img src="https://images.unsplash.com/photo-123?w=800">`,
	}})
	require.Len(t, refs, 1)
	assert.Equal(t, "https://images.unsplash.com/photo-123?w=800", refs[0].URL)
}
