package collaborator

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair/imagecheck"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/config"
)

// ErrNoStockPhoto 图库无匹配结果
var ErrNoStockPhoto = errors.New("no stock photo found")

// LoadCache 读穿缓存
type LoadCache interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (string, error)) (string, error)
}

type unsplashSearchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Small   string `json:"small"`
		} `json:"urls"`
	} `json:"results"`
}

// StockPhotoClient Unsplash 图库检索客户端
type StockPhotoClient struct {
	http  *httpClient
	cache LoadCache
	ttl   time.Duration
}

var _ imagecheck.StockPhotoFinder = (*StockPhotoClient)(nil)

// NewStockPhotoClient 创建图库客户端；cache 可为 nil
func NewStockPhotoClient(cfg config.CollaboratorConfig, cache LoadCache, ttl time.Duration) *StockPhotoClient {
	return &StockPhotoClient{
		http:  newHTTPClient("stock_photo", cfg, map[string]string{"Authorization": "Client-ID " + cfg.APIKey, "Accept-Version": "v1"}),
		cache: cache,
		ttl:   ttl,
	}
}

// FindPhoto 按关键词返回一张横幅图片地址
func (c *StockPhotoClient) FindPhoto(ctx context.Context, query string) (string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if c.cache == nil || c.ttl <= 0 {
		return c.search(ctx, query)
	}
	return c.cache.GetOrLoad(ctx, "stock:"+query, c.ttl, func(ctx context.Context) (string, error) {
		return c.search(ctx, query)
	})
}

func (c *StockPhotoClient) search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")
	params.Set("orientation", "landscape")

	var resp unsplashSearchResponse
	if err := c.http.do(ctx, http.MethodGet, "/search/photos?"+params.Encode(), nil, &resp); err != nil {
		return "", err
	}
	for _, r := range resp.Results {
		if r.URLs.Regular != "" {
			return r.URLs.Regular, nil
		}
		if r.URLs.Small != "" {
			return r.URLs.Small, nil
		}
	}
	return "", ErrNoStockPhoto
}
