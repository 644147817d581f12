package collaborator

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"strings"

	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/webp"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/orchestrator"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/config"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

const defaultImageModel = "google/gemini-2.5-flash-image"

type imageChatRequest struct {
	Model      string             `json:"model"`
	Messages   []imageChatMessage `json:"messages"`
	Modalities []string           `json:"modalities"`
	Stream     bool               `json:"stream"`
}

type imageChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type imageChatResponse struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Choices []struct {
		Message struct {
			Images []struct {
				ImageURL struct {
					URL string `json:"url"`
				} `json:"image_url"`
			} `json:"images"`
		} `json:"message"`
	} `json:"choices"`
}

// ImageClient OpenRouter chat/completions 图像生成客户端
type ImageClient struct {
	http  *httpClient
	model string
}

var _ orchestrator.ImageGenerator = (*ImageClient)(nil)

// NewImageClient 创建图像生成客户端
func NewImageClient(cfg config.CollaboratorConfig) *ImageClient {
	model := cfg.Model
	if model == "" {
		model = defaultImageModel
	}
	return &ImageClient{
		http:  newHTTPClient("image", cfg, map[string]string{"Authorization": "Bearer " + cfg.APIKey}),
		model: model,
	}
}

// GenerateImage 生成一张图片；WebP 负载转为 PNG data URL
func (c *ImageClient) GenerateImage(ctx context.Context, prompt string) (*entity.GeneratedImage, error) {
	req := imageChatRequest{
		Model:      c.model,
		Messages:   []imageChatMessage{{Role: "user", Content: prompt}},
		Modalities: []string{"image", "text"},
	}

	var resp imageChatResponse
	if err := c.http.do(ctx, http.MethodPost, "/chat/completions", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil && resp.Error.Message != "" {
		return nil, fmt.Errorf("image api error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.Images) == 0 {
		return nil, errors.New("image api returned no images")
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Images[0].ImageURL.URL)
	if raw == "" {
		return nil, errors.New("image URL is empty")
	}
	if !strings.HasPrefix(raw, "data:") {
		return &entity.GeneratedImage{URL: raw, Prompt: prompt}, nil
	}

	data, mimeType, err := decodeDataURL(raw)
	if err != nil {
		return nil, err
	}
	if mimeType == "image/webp" || isWEBP(data) {
		if data, err = webpToPNG(data); err != nil {
			return nil, err
		}
		mimeType = "image/png"
		raw = "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	}
	return &entity.GeneratedImage{URL: raw, MimeType: mimeType, Prompt: prompt}, nil
}

func decodeDataURL(dataURL string) ([]byte, string, error) {
	const marker = ";base64,"
	idx := strings.Index(dataURL, marker)
	if !strings.HasPrefix(dataURL, "data:") || idx < 0 {
		return nil, "", errors.New("data URL missing base64 marker")
	}
	meta := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(dataURL[:idx], "data:")))
	raw, err := base64.StdEncoding.DecodeString(dataURL[idx+len(marker):])
	if err != nil {
		return nil, "", fmt.Errorf("decode image base64: %w", err)
	}
	if meta == "" {
		meta = "image/png"
	}
	return raw, meta, nil
}

func isWEBP(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}

func webpToPNG(data []byte) ([]byte, error) {
	img, err := webp.Decode(bytes.NewReader(data), &decoder.Options{})
	if err != nil {
		return nil, fmt.Errorf("decode webp: %w", err)
	}
	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}
