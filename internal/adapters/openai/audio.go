package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/scentlab/avatar-relay/internal/core"
)

const (
	audioModel           = "gpt-4o-audio-preview"
	audioTemperature     = 0.4
	audioMaxOutputTokens = 900
)

type responsesContent struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Audio *responsesAudio `json:"audio,omitempty"`
}

type responsesAudio struct {
	Format string   `json:"format"`
	Data   []string `json:"data"`
}

type responsesMessage struct {
	Role    string             `json:"role"`
	Content []responsesContent `json:"content"`
}

type responsesRequest struct {
	Model           string             `json:"model"`
	Modalities      []string           `json:"modalities"`
	Temperature     float64            `json:"temperature"`
	MaxOutputTokens int                `json:"max_output_tokens"`
	Input           []responsesMessage `json:"input"`
}

// AudioChat submits a normalized WAV recording to the Responses API and
// returns its text-only output.
func (c *Client) AudioChat(ctx context.Context, system, instruction string, wav []byte) (string, error) {
	b64 := base64.StdEncoding.EncodeToString(wav)
	payload := responsesRequest{
		Model:           audioModel,
		Modalities:      []string{"text"},
		Temperature:     audioTemperature,
		MaxOutputTokens: audioMaxOutputTokens,
		Input: []responsesMessage{
			{Role: "system", Content: []responsesContent{{Type: "output_text", Text: system}}},
			{Role: "user", Content: []responsesContent{
				{Type: "input_text", Text: instruction},
				{Type: "input_audio", Audio: &responsesAudio{Format: "wav", Data: []string{b64}}},
			}},
		},
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("responses payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("responses request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.audioHTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("responses call: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("responses body read: %w", err)
	}

	var out struct {
		OutputText string `json:"output_text"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		c.log.Error().Str("preview", core.Excerpt(body, 300)).Msg("non-JSON from responses endpoint")
		return "", &core.UpstreamError{Service: "openai", Status: resp.StatusCode, Body: core.Excerpt(body, 300)}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.log.Error().Int("status", resp.StatusCode).Str("body", core.Excerpt(body, 300)).Msg("responses endpoint error")
		return "", &core.UpstreamError{Service: "openai", Status: resp.StatusCode, Body: core.Excerpt(body, 300)}
	}
	return strings.TrimSpace(out.OutputText), nil
}
