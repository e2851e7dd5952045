package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/scentlab/avatar-relay/internal/adapters/heygen"
	"github.com/scentlab/avatar-relay/internal/app"
	"github.com/scentlab/avatar-relay/internal/config"
	"github.com/scentlab/avatar-relay/internal/core"
)

// identityTranscoder plays the role of ffmpeg and returns input unchanged.
type identityTranscoder struct{ calls int }

func (tr *identityTranscoder) Available() bool { return true }
func (tr *identityTranscoder) Convert(_ context.Context, in []byte, _, _ string) ([]byte, error) {
	tr.calls++
	return in, nil
}

type stubAudioChatter struct{ reply string }

func (s *stubAudioChatter) AudioChat(context.Context, string, string, []byte) (string, error) {
	return s.reply, nil
}

type stubCompleter struct{ reply string }

func (s *stubCompleter) Complete(context.Context, core.ChatRequest) (string, error) {
	return s.reply, nil
}

type stubTranscriber struct{ text string }

func (s *stubTranscriber) Transcribe(context.Context, string) (string, error) {
	return s.text, nil
}

type testEnv struct {
	srv        *httptest.Server
	transcoder *identityTranscoder
}

func newEnv(t *testing.T, upstream http.Handler) *testEnv {
	t.Helper()

	heygenURL := ""
	if upstream != nil {
		mock := httptest.NewServer(upstream)
		t.Cleanup(mock.Close)
		heygenURL = mock.URL
	}

	cfg := &config.Config{
		Mode:       "release",
		StaticPath: t.TempDir(),
		OpenAIKey:  "test-key",
		HeyGenKey:  "test-key",
	}

	provider := heygen.NewClient(heygenURL, cfg.HeyGenKey, zerolog.Nop())
	store := app.NewSessionStore()
	avatarSvc := app.NewAvatarService(provider, store, app.AvatarDefaults{
		AvatarID: "June_HR_public", VoiceID: "voc", PoseName: "June HR",
	})

	transcoder := &identityTranscoder{}
	chatSvc := app.NewChatService(&stubCompleter{reply: "sure"})
	voiceSvc := app.NewVoiceService(transcoder, &stubAudioChatter{reply: "Notes: cedar and rain."}, &stubTranscriber{})

	api := NewAPI(cfg, avatarSvc, chatSvc, voiceSvc, transcoder, zerolog.Nop())
	srv := httptest.NewServer(SetupRouter(cfg, api))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, transcoder: transcoder}
}

func postJSON(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, out
}

func postFile(t *testing.T, url string, contentType string, data []byte) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="clip.bin"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, out
}

func TestStartSessionScenario(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/streaming.new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"session_id": "s1", "offer": {"sdp": "v=0..."}, "ice_servers2": [{"urls": ["stun:x"]}]}}`))
	})
	mux.HandleFunc("/v1/streaming.create_token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"token": "t1"}}`))
	})
	env := newEnv(t, mux)

	status, out := postJSON(t, env.srv.URL+"/api/start-session", `{}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d body = %v", status, out)
	}
	if out["status"] != "ready" || out["session_id"] != "s1" || out["session_token"] != "t1" ||
		out["offer_sdp"] != "v=0..." || out["avatar_name"] != "June HR" {
		t.Fatalf("unexpected body %v", out)
	}
	rtc, ok := out["rtc_config"].(map[string]any)
	if !ok {
		t.Fatalf("rtc_config missing: %v", out)
	}
	servers, ok := rtc["iceServers"].([]any)
	if !ok || len(servers) != 1 {
		t.Fatalf("iceServers malformed: %v", rtc)
	}
	urls := servers[0].(map[string]any)["urls"].([]any)
	if len(urls) != 1 || urls[0] != "stun:x" {
		t.Fatalf("urls = %v", urls)
	}
}

func TestStartSessionUpstreamFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/streaming.new", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "bad key"}`))
	})
	env := newEnv(t, mux)

	status, out := postJSON(t, env.srv.URL+"/api/start-session", `{}`)
	if status != http.StatusBadGateway {
		t.Fatalf("status = %d body = %v", status, out)
	}
}

func TestSendTaskWithoutSession(t *testing.T) {
	hits := 0
	env := newEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))

	status, out := postJSON(t, env.srv.URL+"/api/send-task", `{"text": "hello"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d body = %v", status, out)
	}
	if out["error"] != "No active session." {
		t.Fatalf("error = %v", out["error"])
	}
	if hits != 0 {
		t.Fatalf("upstream should not be called, got %d hits", hits)
	}
}

func TestSendTaskMissingText(t *testing.T) {
	env := newEnv(t, nil)
	status, out := postJSON(t, env.srv.URL+"/api/send-task", `{}`)
	if status != http.StatusBadRequest || out["error"] != "text required" {
		t.Fatalf("status = %d body = %v", status, out)
	}
}

func TestStopSessionWithoutRecord(t *testing.T) {
	env := newEnv(t, nil)
	status, out := postJSON(t, env.srv.URL+"/api/stop-session", `{}`)
	if status != http.StatusOK || out["ok"] != true || out["note"] != "no active session" {
		t.Fatalf("status = %d body = %v", status, out)
	}
}

func TestTranscribeTinyUploadSkipsTranscoder(t *testing.T) {
	env := newEnv(t, nil)

	status, out := postFile(t, env.srv.URL+"/api/transcribe", "audio/webm", make([]byte, 500))
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if out["text"] != "" {
		t.Fatalf("text = %v, want empty", out["text"])
	}
	if env.transcoder.calls != 0 {
		t.Fatalf("transcoder must not run for tiny uploads, ran %d times", env.transcoder.calls)
	}
}

func TestVoiceChatHappyPath(t *testing.T) {
	env := newEnv(t, nil)

	data := make([]byte, 16<<10)
	copy(data[0:4], "RIFF")
	copy(data[8:12], "WAVE")

	status, out := postFile(t, env.srv.URL+"/api/voicechat", "audio/wav", data)
	if status != http.StatusOK {
		t.Fatalf("status = %d body = %v", status, out)
	}
	if out["text"] != "Notes: cedar and rain." {
		t.Fatalf("text = %v", out["text"])
	}
	dbg, ok := out["debug"].(map[string]any)
	if !ok {
		t.Fatalf("debug missing: %v", out)
	}
	if dbg["wav_bytes"] != float64(len(data)) {
		t.Fatalf("wav_bytes = %v, want %d", dbg["wav_bytes"], len(data))
	}
}

func TestVoiceChatTinyUpload(t *testing.T) {
	env := newEnv(t, nil)
	status, out := postFile(t, env.srv.URL+"/api/voicechat", "audio/webm", make([]byte, 100))
	if status != http.StatusBadRequest || out["error"] != "empty_or_too_small" {
		t.Fatalf("status = %d body = %v", status, out)
	}
	if out["stage"] != "recv_upload" {
		t.Fatalf("stage = %v", out["stage"])
	}
}

func TestChatEndpoint(t *testing.T) {
	env := newEnv(t, nil)
	resp, err := http.Post(env.srv.URL+"/api/chat", "application/x-www-form-urlencoded",
		strings.NewReader("text=hi"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"response":"sure"`) {
		t.Fatalf("status = %d body = %s", resp.StatusCode, body)
	}
}

func TestPingAndHealth(t *testing.T) {
	env := newEnv(t, nil)
	for _, path := range []string{"/api/ping", "/api/health"} {
		resp, err := http.Get(env.srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d", path, resp.StatusCode)
		}
	}
}

func TestFrontendLogAck(t *testing.T) {
	env := newEnv(t, nil)
	status, out := postJSON(t, env.srv.URL+"/api/log",
		`{"area": "rec", "message": "mic started", "level": "INFO", "extra": {"ms": 12}}`)
	if status != http.StatusOK || out["ok"] != true {
		t.Fatalf("status = %d body = %v", status, out)
	}
}
