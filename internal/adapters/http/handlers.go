package http

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scentlab/avatar-relay/internal/app"
	"github.com/scentlab/avatar-relay/internal/config"
	"github.com/scentlab/avatar-relay/internal/core"
	"github.com/scentlab/avatar-relay/internal/domain"
)

// API holds the endpoint handlers and their dependencies.
type API struct {
	cfg        *config.Config
	avatar     *app.AvatarService
	chat       *app.ChatService
	voice      *app.VoiceService
	transcoder core.Transcoder
	feLog      zerolog.Logger
}

func NewAPI(cfg *config.Config, avatar *app.AvatarService, chat *app.ChatService, voice *app.VoiceService, transcoder core.Transcoder, feLog zerolog.Logger) *API {
	return &API{cfg: cfg, avatar: avatar, chat: chat, voice: voice, transcoder: transcoder, feLog: feLog}
}

// ---- avatar session ----

type startSessionRequest struct {
	AvatarID string `json:"avatar_id"`
	VoiceID  string `json:"voice_id"`
	PoseName string `json:"pose_name"`
}

func (a *API) startSession(c *gin.Context) {
	if a.cfg.HeyGenKey == "" {
		log.Error().Str("module", "adapters.http").Msg("missing HEYGEN_API_KEY")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing HEYGEN_API_KEY"})
		return
	}

	// Body is optional; an empty or absent payload means all defaults.
	var req startSessionRequest
	_ = c.ShouldBindJSON(&req)

	sess, err := a.avatar.StartSession(c.Request.Context(), app.StartRequest{
		AvatarID: req.AvatarID,
		VoiceID:  req.VoiceID,
		PoseName: req.PoseName,
	})
	if err != nil {
		gatewayError(c, "start-session", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ready",
		"session_id":    sess.ID,
		"session_token": sess.Token,
		"offer_sdp":     sess.OfferSDP,
		"rtc_config":    sess.RTCConfig,
		"avatar_name":   sess.AvatarName,
	})
}

func (a *API) heygenStart(c *gin.Context) {
	if a.cfg.HeyGenKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing HEYGEN_API_KEY"})
		return
	}
	sessionID := c.PostForm("session_id")
	answerSDP := c.PostForm("answer_sdp")
	if sessionID == "" || answerSDP == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and answer_sdp required"})
		return
	}

	status, err := a.avatar.SubmitAnswer(c.Request.Context(), sessionID, answerSDP, c.PostForm("session_token"))
	if err != nil {
		if errors.Is(err, app.ErrTokenRequired) {
			log.Error().Str("module", "adapters.http").Msg("start: missing session_token")
			c.JSON(http.StatusBadRequest, gin.H{"error": app.ErrTokenRequired.Error()})
			return
		}
		gatewayError(c, "heygen-start", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "upstream": status})
}

type stopSessionRequest struct {
	SessionID    string `json:"session_id"`
	SessionToken string `json:"session_token"`
}

func (a *API) stopSession(c *gin.Context) {
	if a.cfg.HeyGenKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing HEYGEN_API_KEY"})
		return
	}
	var req stopSessionRequest
	_ = c.ShouldBindJSON(&req)

	stopped, err := a.avatar.StopSession(c.Request.Context(), req.SessionID, req.SessionToken)
	if err != nil {
		gatewayError(c, "stop-session", err)
		return
	}
	if !stopped {
		c.JSON(http.StatusOK, gin.H{"ok": true, "note": "no active session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type sendTaskRequest struct {
	Text         string `json:"text"`
	SessionID    string `json:"session_id"`
	SessionToken string `json:"session_token"`
}

func (a *API) sendTask(c *gin.Context) {
	if a.cfg.HeyGenKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing HEYGEN_API_KEY"})
		return
	}
	var req sendTaskRequest
	_ = c.ShouldBindJSON(&req)
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text required"})
		return
	}

	status, err := a.avatar.SendTask(c.Request.Context(), req.Text, req.SessionID, req.SessionToken)
	if err != nil {
		if errors.Is(err, app.ErrNoActiveSession) {
			c.JSON(http.StatusBadRequest, gin.H{"error": app.ErrNoActiveSession.Error()})
			return
		}
		gatewayError(c, "send-task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "queued", "upstream": status, "text": req.Text})
}

// ---- text chat ----

func (a *API) chatReply(c *gin.Context) {
	if a.cfg.OpenAIKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing OPENAI_API_KEY"})
		return
	}
	text := c.PostForm("text")
	reply, err := a.chat.Reply(c.Request.Context(), text)
	if err != nil {
		gatewayError(c, "chat", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply})
}

func (a *API) perfumeExplain(c *gin.Context) {
	if a.cfg.OpenAIKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing OPENAI_API_KEY"})
		return
	}
	name := c.PostForm("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}
	reply, err := a.chat.ExplainProduct(c.Request.Context(), name)
	if err != nil {
		gatewayError(c, "perfume-explain", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply})
}

func (a *API) hello(c *gin.Context) {
	if a.cfg.OpenAIKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing OPENAI_API_KEY"})
		return
	}
	reply, err := a.chat.Hello(c.Request.Context())
	if err != nil {
		gatewayError(c, "hello", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply})
}

// ---- voice ----

func (a *API) voiceChat(c *gin.Context) {
	if a.cfg.OpenAIKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing OPENAI_API_KEY", "stage": app.StageRecvUpload})
		return
	}

	up, err := readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "stage": app.StageRecvUpload})
		return
	}
	meta := gin.H{"filename": up.Filename, "content_type": up.ContentType, "size_bytes": len(up.Data)}
	log.Info().Str("module", "adapters.http").Interface("meta", meta).Msg("voicechat upload")

	res, err := a.voice.VoiceChat(c.Request.Context(), up)
	if err != nil {
		var stageErr *app.StageError
		if !errors.As(err, &stageErr) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "stage": app.StageRecvUpload})
			return
		}
		switch stageErr.Stage {
		case app.StageRecvUpload:
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty_or_too_small", "stage": stageErr.Stage, "meta": meta})
		case app.StageFFmpegConvert:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ffmpeg_conversion_failed", "stage": stageErr.Stage, "meta": meta})
		default:
			var upErr *core.UpstreamError
			if errors.As(stageErr.Err, &upErr) {
				c.JSON(http.StatusBadGateway, gin.H{
					"error":         "openai_error",
					"stage":         stageErr.Stage,
					"openai_status": upErr.Status,
					"openai_body":   upErr.Body,
				})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": stageErr.Err.Error(), "stage": stageErr.Stage})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"text": res.Text,
		"debug": gin.H{
			"stage":     app.StageParseResponse,
			"upload":    meta,
			"wav_bytes": res.WAVBytes,
			"b64_len":   res.B64Len,
		},
	})
}

func (a *API) transcribe(c *gin.Context) {
	up, err := readUpload(c)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"text": ""})
		return
	}
	text := a.voice.Transcribe(c.Request.Context(), up)
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func readUpload(c *gin.Context) (domain.AudioUpload, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return domain.AudioUpload{}, err
	}
	f, err := fh.Open()
	if err != nil {
		return domain.AudioUpload{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return domain.AudioUpload{}, err
	}
	return domain.AudioUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// ---- diagnostics ----

func (a *API) diag(c *gin.Context) {
	cwd, _ := os.Getwd()
	c.JSON(http.StatusOK, gin.H{
		"openai_key_present": a.cfg.OpenAIKey != "",
		"heygen_key_present": a.cfg.HeyGenKey != "",
		"ffmpeg_ok":          a.transcoder.Available(),
		"cwd":                cwd,
		"frontend_paths_exist": gin.H{
			"index.html":  fileExists(filepath.Join(a.cfg.StaticPath, "index.html")),
			"perfume.css": fileExists(filepath.Join(a.cfg.StaticPath, "perfume.css")),
			"perfume.js":  fileExists(filepath.Join(a.cfg.StaticPath, "perfume.js")),
		},
	})
}

func (a *API) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"has_openai": a.cfg.OpenAIKey != "",
		"has_heygen": a.cfg.HeyGenKey != "",
	})
}

type frontendLogRequest struct {
	Area    string         `json:"area"`
	Src     string         `json:"src"`
	Message string         `json:"message"`
	Msg     string         `json:"msg"`
	Level   string         `json:"level"`
	Extra   map[string]any `json:"extra"`
}

// frontendLog appends browser-side debug lines to the shared log file.
func (a *API) frontendLog(c *gin.Context) {
	var req frontendLogRequest
	_ = c.ShouldBindJSON(&req)

	area := req.Area
	if area == "" {
		area = req.Src
	}
	if area == "" {
		area = "fe"
	}
	msg := req.Message
	if msg == "" {
		msg = req.Msg
	}

	evt := a.feLog.Info()
	if req.Level == "ERROR" || req.Level == "error" {
		evt = a.feLog.Error()
	}
	evt.Str("area", area).Str("client", c.GetString("client_token")).
		Interface("extra", req.Extra).Msg(msg)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// gatewayError converts an upstream failure into the 502 body callers use
// for diagnosis.
func gatewayError(c *gin.Context, op string, err error) {
	var upErr *core.UpstreamError
	if errors.As(err, &upErr) {
		log.Error().Str("module", "adapters.http").Str("op", op).
			Int("status", upErr.Status).Str("body", upErr.Body).Msg("upstream error")
		c.JSON(http.StatusBadGateway, gin.H{"error": upErr.Error(), "status": upErr.Status, "body": upErr.Body})
		return
	}
	log.Error().Str("module", "adapters.http").Str("op", op).Err(err).Msg("request failed")
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
