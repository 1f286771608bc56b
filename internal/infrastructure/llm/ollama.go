package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/clearclaim/claims-engine/internal/application/port"
)

// OllamaProvider implements port.ReasoningProvider against a local Ollama
// server. Useful for air-gapped deployments where claim data may not leave
// the network.
type OllamaProvider struct {
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOllamaProvider creates an Ollama-backed reasoning provider. The HTTP
// client carries no timeout of its own; deadlines come from the caller's
// context.
func NewOllamaProvider(baseURL, model string, maxTokens int, logger *zap.Logger) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaProvider{
		baseURL:    baseURL,
		model:      model,
		maxTokens:  maxTokens,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Images  []string       `json:"images,omitempty"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Generate sends a non-streaming generate request.
func (p *OllamaProvider) Generate(ctx context.Context, req port.GenerateRequest) (string, error) {
	return p.generate(ctx, req, nil)
}

// GenerateWithImage sends the prompt with one base64-encoded image attached.
func (p *OllamaProvider) GenerateWithImage(ctx context.Context, req port.GenerateRequest, image []byte) (string, error) {
	return p.generate(ctx, req, []string{base64.StdEncoding.EncodeToString(image)})
}

func (p *OllamaProvider) generate(ctx context.Context, req port.GenerateRequest, images []string) (string, error) {
	prompt := req.Prompt
	if req.SystemInstruction != "" {
		prompt = req.SystemInstruction + "\n\n" + prompt
	}

	body := ollamaRequest{
		Model:  p.model,
		Prompt: prompt,
		Images: images,
		Stream: false,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": p.maxTokens,
		},
	}
	if req.JSONResponse {
		body.Format = "json"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.logger.Error("Ollama API call failed", zap.Error(err), zap.String("model", p.model))
		return "", fmt.Errorf("ollama API call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama API returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}

	return parsed.Response, nil
}

// ModelName returns the configured model identifier.
func (p *OllamaProvider) ModelName() string {
	return "ollama/" + p.model
}
