package collaborator

import (
	"context"
	"net/http"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/orchestrator"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/config"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

const defaultSearchLimit = 5

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// SearchClient 网页搜索客户端
type SearchClient struct {
	http *httpClient
}

var _ orchestrator.WebSearcher = (*SearchClient)(nil)

// NewSearchClient 创建搜索客户端
func NewSearchClient(cfg config.CollaboratorConfig) *SearchClient {
	return &SearchClient{
		http: newHTTPClient("search", cfg, map[string]string{"Authorization": "Bearer " + cfg.APIKey}),
	}
}

// Search 返回按相关度排序的结果
func (c *SearchClient) Search(ctx context.Context, query string, limit int) ([]entity.SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var resp searchResponse
	if err := c.http.do(ctx, http.MethodPost, "/search", searchRequest{Query: query, MaxResults: limit}, &resp); err != nil {
		return nil, err
	}

	out := make([]entity.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.URL == "" {
			continue
		}
		out = append(out, entity.SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Content})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
