// Package heygen is the HTTP client for the upstream streaming-avatar
// provider. It performs single round trips only; recovery from upstream
// failure is the caller restarting the whole handshake.
package heygen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/scentlab/avatar-relay/internal/core"
)

const (
	pathStreamNew   = "/v1/streaming.new"
	pathCreateToken = "/v1/streaming.create_token"
	pathStreamStart = "/v1/streaming.start"
	pathStreamTask  = "/v1/streaming.task"
	pathStreamStop  = "/v1/streaming.stop"
)

var (
	ErrNoSessionOffer = errors.New("upstream returned no session/offer")
	ErrNoToken        = errors.New("upstream returned no session token")
)

// fallbackICE is used when the upstream supplies no ICE-server list.
var fallbackICE = []webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}}

type Client struct {
	baseURL string
	apiKey  string
	// Session setup calls get the longer budget; task/stop are control calls.
	slow *http.Client
	fast *http.Client
	log  zerolog.Logger
}

func NewClient(baseURL, apiKey string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		slow:    &http.Client{Timeout: 30 * time.Second},
		fast:    &http.Client{Timeout: 20 * time.Second},
		log:     logger.With().Str("module", "adapters.heygen").Logger(),
	}
}

type sdpEnvelope struct {
	Type string `json:"type,omitempty"`
	SDP  string `json:"sdp"`
}

type newSessionResponse struct {
	Data struct {
		SessionID   string             `json:"session_id"`
		Offer       sdpEnvelope        `json:"offer"`
		SDP         sdpEnvelope        `json:"sdp"`
		ICEServers2 []webrtc.ICEServer `json:"ice_servers2"`
		ICEServers  []webrtc.ICEServer `json:"ice_servers"`
	} `json:"data"`
}

type tokenResponse struct {
	Data struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	} `json:"data"`
}

func (c *Client) NewSession(ctx context.Context, avatarID, voiceID string) (core.NewSessionResult, error) {
	payload := map[string]string{"avatar_id": avatarID}
	if voiceID != "" {
		payload["voice_id"] = voiceID
	}
	c.log.Info().Str("avatar_id", avatarID).Msg("streaming.new ->")

	status, body, err := c.post(ctx, c.slow, pathStreamNew, c.apiHeaders(), payload)
	if err != nil {
		return core.NewSessionResult{}, err
	}
	c.log.Info().Int("status", status).Str("body", core.Excerpt(body, 800)).Msg("streaming.new <-")
	if status >= http.StatusBadRequest {
		return core.NewSessionResult{}, &core.UpstreamError{Service: "heygen", Status: status, Body: core.Excerpt(body, 800)}
	}

	var resp newSessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.NewSessionResult{}, &core.UpstreamError{Service: "heygen", Status: status, Body: core.Excerpt(body, 800)}
	}
	offer := resp.Data.Offer.SDP
	if offer == "" {
		offer = resp.Data.SDP.SDP
	}
	if resp.Data.SessionID == "" || offer == "" {
		return core.NewSessionResult{}, ErrNoSessionOffer
	}
	return core.NewSessionResult{
		SessionID:  resp.Data.SessionID,
		OfferSDP:   offer,
		ICEServers: pickICE(resp),
	}, nil
}

// pickICE prefers the newer ice_servers2 field, then ice_servers, then the
// public STUN fallback.
func pickICE(resp newSessionResponse) []webrtc.ICEServer {
	if len(resp.Data.ICEServers2) > 0 {
		return resp.Data.ICEServers2
	}
	if len(resp.Data.ICEServers) > 0 {
		return resp.Data.ICEServers
	}
	return fallbackICE
}

func (c *Client) CreateToken(ctx context.Context, sessionID string) (string, error) {
	status, body, err := c.post(ctx, c.slow, pathCreateToken, c.apiHeaders(), map[string]string{"session_id": sessionID})
	if err != nil {
		return "", err
	}
	c.log.Info().Int("status", status).Str("body", core.Excerpt(body, 800)).Msg("streaming.create_token <-")
	if status >= http.StatusBadRequest {
		return "", &core.UpstreamError{Service: "heygen", Status: status, Body: core.Excerpt(body, 800)}
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &core.UpstreamError{Service: "heygen", Status: status, Body: core.Excerpt(body, 800)}
	}
	token := resp.Data.Token
	if token == "" {
		token = resp.Data.AccessToken
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (c *Client) Start(ctx context.Context, sessionID, answerSDP, token string) (int, error) {
	payload := map[string]any{
		"session_id": sessionID,
		"sdp":        sdpEnvelope{Type: "answer", SDP: answerSDP},
	}
	c.log.Info().Str("session_id", sessionID).Msg("streaming.start ->")
	status, body, err := c.post(ctx, c.slow, pathStreamStart, c.bearerHeaders(token), payload)
	if err != nil {
		return 0, err
	}
	c.log.Info().Int("status", status).Str("body", core.Excerpt(body, 800)).Msg("streaming.start <-")
	if status >= http.StatusBadRequest {
		return status, &core.UpstreamError{Service: "heygen", Status: status, Body: core.Excerpt(body, 800)}
	}
	return status, nil
}

func (c *Client) Task(ctx context.Context, sessionID, text, token string) (int, error) {
	payload := map[string]string{
		"session_id": sessionID,
		"task_type":  "repeat",
		"task_mode":  "sync",
		"text":       text,
	}
	c.log.Info().Str("session_id", sessionID).Int("text_len", len(text)).Msg("streaming.task ->")
	status, body, err := c.post(ctx, c.fast, pathStreamTask, c.bearerHeaders(token), payload)
	if err != nil {
		return 0, err
	}
	if status >= http.StatusBadRequest {
		c.log.Error().Int("status", status).Str("body", core.Excerpt(body, 400)).Msg("streaming.task failed")
		return status, &core.UpstreamError{Service: "heygen", Status: status, Body: core.Excerpt(body, 400)}
	}
	return status, nil
}

func (c *Client) Stop(ctx context.Context, sessionID, token string) error {
	c.log.Info().Str("session_id", sessionID).Msg("streaming.stop ->")
	status, body, err := c.post(ctx, c.fast, pathStreamStop, c.bearerHeaders(token), map[string]string{"session_id": sessionID})
	if err != nil {
		return err
	}
	c.log.Info().Int("status", status).Str("body", core.Excerpt(body, 400)).Msg("streaming.stop <-")
	if status >= http.StatusBadRequest {
		return &core.UpstreamError{Service: "heygen", Status: status, Body: core.Excerpt(body, 400)}
	}
	return nil
}

func (c *Client) apiHeaders() map[string]string {
	return map[string]string{
		"accept":       "application/json",
		"x-api-key":    c.apiKey,
		"content-type": "application/json",
	}
}

func (c *Client) bearerHeaders(token string) map[string]string {
	return map[string]string{
		"accept":        "application/json",
		"authorization": "Bearer " + token,
		"content-type":  "application/json",
	}
}

func (c *Client) post(ctx context.Context, hc *http.Client, path string, headers map[string]string, payload any) (int, []byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("heygen payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return 0, nil, fmt.Errorf("heygen request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("heygen call %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := readBody(resp)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}
