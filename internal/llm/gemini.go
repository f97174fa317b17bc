package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// geminiClient implements the Client interface using the Google GenAI SDK.
type geminiClient struct {
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
}

func newGeminiClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.1
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 500
	}

	return &geminiClient{
		apiKey:      cfg.APIKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Generate sends a generation request to Gemini. The client is created per
// call; the SDK keeps connection reuse internal to its HTTP transport.
func (c *geminiClient) Generate(ctx context.Context, prompt string) (Response, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      c.apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return Response{}, fmt.Errorf("failed to create gemini client: %w", err)
	}

	temperature := float32(c.temperature)
	maxTokens := int32(c.maxTokens)
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: maxTokens,
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return Response{}, fmt.Errorf("empty response from gemini")
	}

	tokens := 0
	metadata := map[string]any{}
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
		metadata["prompt_tokens"] = int(resp.UsageMetadata.PromptTokenCount)
		metadata["candidate_tokens"] = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return Response{
		Content:    text,
		Provider:   "gemini",
		Model:      c.model,
		TokensUsed: tokens,
		Metadata:   metadata,
	}, nil
}
