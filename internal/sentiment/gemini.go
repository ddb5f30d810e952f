package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const geminiInstruction = `You rate the sentiment of chat messages.
Reply with JSON only: {"score": <number between -5 and 5>, "label": "positive" | "negative" | "neutral"}.
Use 0 for neutral or purely informational messages.`

// GeminiConfig configures the Gemini classifier.
type GeminiConfig struct {
	APIKey    string
	ModelName string // Default: "gemini-2.0-flash-exp"
}

// GeminiClient scores text with a Gemini model.
type GeminiClient struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	logger    *zap.Logger
	modelName string
}

// NewGeminiClient creates a new Gemini classifier.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.ModelName == "" {
		cfg.ModelName = "gemini-2.0-flash-exp"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(geminiInstruction)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:      genai.Ptr[float32](0.2),
		MaxOutputTokens:  genai.Ptr[int32](100),
		ResponseMIMEType: "application/json",
	}

	logger.Info("Gemini classifier initialized", zap.String("model", cfg.ModelName))

	return &GeminiClient{
		client:    client,
		model:     model,
		logger:    logger,
		modelName: cfg.ModelName,
	}, nil
}

// Close closes the Gemini client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Score implements service.Classifier. Failures are returned as is; the
// caller decides whether to skip the message.
func (c *GeminiClient) Score(ctx context.Context, text string) (float64, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return 0, fmt.Errorf("gemini API error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return 0, fmt.Errorf("empty response from gemini")
	}

	textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return 0, fmt.Errorf("unexpected response type from gemini")
	}

	score, err := parseScore(string(textPart))
	if err != nil {
		c.logger.Debug("Failed to parse gemini response",
			zap.String("model", c.modelName),
			zap.String("response", string(textPart)),
			zap.Error(err))
		return 0, err
	}
	return score, nil
}

// parseScore reads a ScoreResponse from a model reply, tolerating markdown
// code fences around the JSON.
func parseScore(raw string) (float64, error) {
	cleanJSON := strings.TrimSpace(raw)
	cleanJSON = strings.TrimPrefix(cleanJSON, "```json")
	cleanJSON = strings.TrimPrefix(cleanJSON, "```")
	cleanJSON = strings.TrimSuffix(cleanJSON, "```")
	cleanJSON = strings.TrimSpace(cleanJSON)

	var result ScoreResponse
	if err := json.Unmarshal([]byte(cleanJSON), &result); err != nil {
		return 0, fmt.Errorf("failed to parse gemini response: %w", err)
	}
	return result.value()
}
