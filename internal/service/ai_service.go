package service

import (
	"bytes"
	"context"
	"edu_collaborate_backend/internal/config"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// AIService 封装 chat-completion 接口调用，评审走纯文本模型，手写识别走视觉模型。
// 不做重试：上游失败原样向调用方抛出（含上游 message）。
type AIService struct {
	mu     sync.RWMutex
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// SetConfig 热更新 AI 配置（配置文件变更时由 App 调用）
func (s *AIService) SetConfig(cfg config.AIConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.client = &http.Client{Timeout: cfg.Timeout}
}

func (s *AIService) current() (config.AIConfig, *http.Client) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.client
}

type AIChatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string 或 []AIContentPart（多模态）
}

type AIContentPart struct {
	Type     string      `json:"type"` // text | image_url
	Text     string      `json:"text,omitempty"`
	ImageURL *AIImageURL `json:"image_url,omitempty"`
}

type AIImageURL struct {
	URL string `json:"url"` // data:<mime>;base64,<data>
}

type ChatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []AIChatMessage `json:"messages"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// upstreamError 尝试提取上游返回体中的 message 字段，原样透传给用户；
// 解析不出来时退回到带状态码的通用文案
func upstreamError(statusCode int, body []byte) error {
	var envelope struct {
		Message string `json:"message"`
		Error   *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != nil && envelope.Error.Message != "" {
			return fmt.Errorf("%s", envelope.Error.Message)
		}
		if envelope.Message != "" {
			return fmt.Errorf("%s", envelope.Message)
		}
	}
	return fmt.Errorf("AI API error (status %d): %s", statusCode, string(body))
}

func (s *AIService) complete(ctx context.Context, model string, messages []AIChatMessage) (string, error) {
	cfg, client := s.current()

	reqBody := ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", upstreamError(resp.StatusCode, body)
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}

	if result.Error != nil && result.Error.Message != "" {
		return "", fmt.Errorf("%s", result.Error.Message)
	}

	if len(result.Choices) > 0 {
		return result.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("AI returned no choices")
}

// Chat 纯文本补全，用于 AI 评审
func (s *AIService) Chat(ctx context.Context, systemPrompt, prompt string) (string, error) {
	messages := []AIChatMessage{}

	if systemPrompt != "" {
		messages = append(messages, AIChatMessage{
			Role:    "system",
			Content: systemPrompt,
		})
	}

	messages = append(messages, AIChatMessage{
		Role:    "user",
		Content: prompt,
	})

	cfg, _ := s.current()
	return s.complete(ctx, cfg.Model, messages)
}

// ChatVision 多模态补全：prompt + 内联 base64 文件，用于手写作业识别。
// 单次调用，上游只命中一次。
func (s *AIService) ChatVision(ctx context.Context, prompt string, mimeType string, base64Data string) (string, error) {
	messages := []AIChatMessage{
		{
			Role: "user",
			Content: []AIContentPart{
				{Type: "text", Text: prompt},
				{
					Type: "image_url",
					ImageURL: &AIImageURL{
						URL: fmt.Sprintf("data:%s;base64,%s", mimeType, base64Data),
					},
				},
			},
		},
	}

	cfg, _ := s.current()
	return s.complete(ctx, cfg.VisionModel, messages)
}
