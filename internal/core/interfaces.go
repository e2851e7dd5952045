package core

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// NewSessionResult is what the upstream returns for a freshly created stream.
type NewSessionResult struct {
	SessionID  string
	OfferSDP   string
	ICEServers []webrtc.ICEServer
}

// AvatarProvider is the upstream streaming-avatar API.
// Owned by the adapter; every call is a single blocking round trip,
// never retried.
type AvatarProvider interface {
	// NewSession creates a stream and returns its id, SDP offer and ICE set.
	NewSession(ctx context.Context, avatarID, voiceID string) (NewSessionResult, error)
	// CreateToken mints the bearer credential for an existing session.
	CreateToken(ctx context.Context, sessionID string) (string, error)
	// Start submits the browser's SDP answer. Returns the upstream status.
	Start(ctx context.Context, sessionID, answerSDP, token string) (int, error)
	// Task relays an utterance as a synchronous repeat-speech command.
	Task(ctx context.Context, sessionID, text, token string) (int, error)
	// Stop tears the stream down upstream.
	Stop(ctx context.Context, sessionID, token string) error
}

// ChatRequest is one chat-completion round trip.
type ChatRequest struct {
	Model       string
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// ChatCompleter relays a text prompt to the chat-completion upstream.
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// AudioChatter submits a normalized WAV recording to the audio-capable
// chat upstream and returns its text-only reply.
type AudioChatter interface {
	AudioChat(ctx context.Context, system, instruction string, wav []byte) (string, error)
}

// Transcoder converts an audio buffer between containers. Implementations
// come in two variants, available and unavailable, resolved once at startup
// so call sites never branch on tool presence.
type Transcoder interface {
	Convert(ctx context.Context, in []byte, inExt, outExt string) ([]byte, error)
	Available() bool
}

// Transcriber runs local speech-to-text over a 16 kHz mono WAV file.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (string, error)
}
