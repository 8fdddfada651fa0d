package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNotConfigured indicates the AI client has no API key
	ErrNotConfigured = errors.New("AI client not configured")
	// ErrAPICallFailed indicates the AI API call failed
	ErrAPICallFailed = errors.New("AI API call failed")
	// ErrInvalidResponse indicates an unparsable response from the AI API
	ErrInvalidResponse = errors.New("invalid AI API response")
)

// Provider represents an AI provider
type Provider string

const (
	// ProviderOpenAI represents OpenAI API
	ProviderOpenAI Provider = "openai"
	// ProviderClaude represents Anthropic Claude API
	ProviderClaude Provider = "claude"
	// ProviderCustom represents a custom OpenAI-compatible endpoint
	ProviderCustom Provider = "custom"
)

// AIClient analyzes message bodies through an OpenAI-compatible chat
// completion API. One prompt returns the full analysis as JSON.
type AIClient struct {
	provider   Provider
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewAIClient creates an AI-backed analyzer
func NewAIClient(provider, apiKey, model, baseURL string) *AIClient {
	c := &AIClient{
		provider: Provider(strings.ToLower(provider)),
		apiKey:   apiKey,
		model:    model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	if baseURL != "" {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	} else {
		switch c.provider {
		case ProviderClaude:
			c.baseURL = "https://api.anthropic.com/v1"
			if c.model == "" {
				c.model = "claude-3-haiku-20240307"
			}
		default:
			c.provider = ProviderOpenAI
			c.baseURL = "https://api.openai.com/v1"
			if c.model == "" {
				c.model = "gpt-4o-mini"
			}
		}
	}
	return c
}

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a chat completion request
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

// ChatResponse represents a chat completion response
type ChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const analysisSystemPrompt = `You are an analyst for a heavy-machinery parts supplier. Analyze the email body and respond with ONLY a JSON object, no prose, with exactly these keys:
{
  "clasificacion": one of "Licitación/requerimiento público", "Cotización directa", "Notificaciones tipo judicial, acción urgente", "Informativo (sin acción)",
  "confianza_clasificacion": number between 0 and 1,
  "entidades": {
    "entidad": organization name or null,
    "contacto_email": contact email or null,
    "productos": array of product names mentioned,
    "fecha_limite": deadline as "YYYY-MM-DD" or null,
    "monto": monetary amount as number or null
  },
  "resumen": one-sentence summary in the email's language,
  "es_relevante": boolean, true only for actionable business opportunities,
  "confianza_relevancia": number between 0 and 1
}`

// aiResult mirrors the JSON shape the prompt asks for
type aiResult struct {
	Clasificacion           string  `json:"clasificacion"`
	ConfianzaClasificacion  float64 `json:"confianza_clasificacion"`
	Entidades               struct {
		Entidad      *string  `json:"entidad"`
		ContactoMail *string  `json:"contacto_email"`
		Productos    []string `json:"productos"`
		FechaLimite  *string  `json:"fecha_limite"`
		Monto        *float64 `json:"monto"`
	} `json:"entidades"`
	Resumen             string  `json:"resumen"`
	EsRelevante         bool    `json:"es_relevante"`
	ConfianzaRelevancia float64 `json:"confianza_relevancia"`
}

// Analyze sends the body to the chat API and maps the JSON answer onto
// the analyzer result shape.
func (c *AIClient) Analyze(body string) (*Result, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, ErrNotConfigured)
	}

	content := body
	if len(content) > 6000 {
		content = content[:6000]
	}

	messages := []ChatMessage{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: "Analyze this email:\n\n" + content},
	}

	response, err := c.sendChatRequest(messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	parsed, err := parseAIResult(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	return parsed, nil
}

func parseAIResult(response string) (*Result, error) {
	// Models occasionally wrap the JSON in a code fence
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")

	var raw aiResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(response)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	result := &Result{
		Classification:           raw.Clasificacion,
		ClassificationConfidence: clampConfidence(raw.ConfianzaClasificacion),
		Summary:                  raw.Resumen,
		IsRelevant:               raw.EsRelevante,
		RelevanceConfidence:      clampConfidence(raw.ConfianzaRelevancia),
	}
	if raw.Entidades.Entidad != nil {
		result.Entities.Organization = *raw.Entidades.Entidad
	}
	if raw.Entidades.ContactoMail != nil {
		result.Entities.ContactEmail = *raw.Entidades.ContactoMail
	}
	result.Entities.Products = raw.Entidades.Productos
	if raw.Entidades.FechaLimite != nil {
		if d, err := time.ParseInLocation("2006-01-02", *raw.Entidades.FechaLimite, time.UTC); err == nil {
			result.Entities.Deadline = &d
		}
	}
	result.Entities.Amount = raw.Entidades.Monto
	return result, nil
}

func clampConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}

// sendChatRequest sends a chat completion request to the AI API
func (c *AIClient) sendChatRequest(messages []ChatMessage) (string, error) {
	request := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   800,
		Temperature: 0.2,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")
	switch c.provider {
	case ProviderClaude:
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")
	default:
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrAPICallFailed, resp.StatusCode, string(respBody))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrAPICallFailed, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", ErrInvalidResponse
	}
	return chatResp.Choices[0].Message.Content, nil
}
