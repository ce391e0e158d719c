// Package evaluator talks to the language-model API. It implements the
// free-text rubric grader and the module content generator; both fall back to
// deterministic local behavior when no API key is configured.
package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sectrain/config"
	"sectrain/internal/model"
)

// Client wraps the generateContent HTTP API.
type Client struct {
	config *config.AIConfig
	client *http.Client
}

// NewClient creates an API client from AI config.
func NewClient(cfg *config.AIConfig) *Client {
	return &Client{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

// generate makes a deterministic (temperature 0) JSON-mode model call and
// returns the raw text of the first candidate. Every transport, status, or
// shape failure is classified ErrAIUnavailable so callers can retry.
func (c *Client) generate(ctx context.Context, modelName, systemInstruction, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"systemInstruction": map[string]interface{}{
			"parts": []map[string]string{
				{"text": systemInstruction},
			},
		},
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":      0,
			"responseMimeType": "application/json",
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", model.ErrAIUnavailable, err)
	}

	url := fmt.Sprintf("%s?key=%s", c.config.ModelEndpoint(modelName), c.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", model.ErrAIUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrAIUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", model.ErrAIUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", model.ErrAIUnavailable, resp.StatusCode)
	}

	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", model.ErrAIUnavailable, err)
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", model.ErrAIUnavailable)
	}
	return apiResp.Candidates[0].Content.Parts[0].Text, nil
}
