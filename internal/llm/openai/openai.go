package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"gpt-signal-relay/internal/trace"
)

const (
	apiURL        = "https://api.openai.com/v1/chat/completions"
	chatTimeout   = 25 * time.Second
	visionTimeout = 35 * time.Second
)

// Config mirrors the llm section of the service config.
type Config struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

type Decider struct {
	cfg Config
}

func NewDecider(cfg Config) *Decider {
	return &Decider{cfg: cfg}
}

// Generate sends the prompt to the chat completions API and returns the
// raw model text.
func (d *Decider) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-chat")
	defer span.End()

	messages := []map[string]any{
		{"role": "system", "content": "You output strictly in the requested schema."},
		{"role": "user", "content": prompt},
	}
	return d.complete(ctx, messages, chatTimeout)
}

// GenerateVision asks the model to read a chart screenshot. The caption
// is passed along as a hint only.
func (d *Decider) GenerateVision(ctx context.Context, imageURL, caption string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-vision")
	defer span.End()

	if caption == "" {
		caption = "none"
	}
	prompt := "Extract trading signal from the screenshot. You MUST output exactly this schema:\n" +
		"Decision: LONG/SHORT/WAIT\nEntry: <number>\nSL: <number>\nTP1: <number>\nTP2: <number>\n" +
		"RR: <number 1.3..2.2>\nWhy: 1) ... 2) ...\nRisk: ...\n" +
		"Use prudent RR~1.5-2. If unclear -> WAIT. Caption (hint): " + caption

	messages := []map[string]any{
		{"role": "system", "content": "Return ONLY the schema requested."},
		{"role": "user", "content": []map[string]any{
			{"type": "text", "text": prompt},
			{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
		}},
	}
	return d.complete(ctx, messages, visionTimeout)
}

func (d *Decider) complete(ctx context.Context, messages []map[string]any, timeout time.Duration) (string, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", errors.New("OPENAI_API_KEY missing")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body := map[string]any{
		"model":       d.cfg.Model,
		"messages":    messages,
		"temperature": d.cfg.Temperature,
		"max_tokens":  d.cfg.MaxTokens,
	}
	bb, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewReader(bb))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}
