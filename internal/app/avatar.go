package app

import (
	"context"
	"errors"
	"strings"

	"github.com/pion/sdp/v3"
	"github.com/rs/zerolog/log"

	"github.com/scentlab/avatar-relay/internal/core"
	"github.com/scentlab/avatar-relay/internal/domain"
)

var (
	ErrNoActiveSession = errors.New("No active session.")
	ErrTokenRequired   = errors.New("session_token is required")
)

// AvatarDefaults are the identifiers used when the caller supplies none.
type AvatarDefaults struct {
	AvatarID string
	VoiceID  string
	PoseName string
}

// AvatarService drives the handshake with the streaming-avatar upstream.
// It never retries: the first failure surfaces to the caller, who restarts
// the whole sequence.
type AvatarService struct {
	provider core.AvatarProvider
	store    *SessionStore
	defaults AvatarDefaults
}

func NewAvatarService(provider core.AvatarProvider, store *SessionStore, defaults AvatarDefaults) *AvatarService {
	return &AvatarService{provider: provider, store: store, defaults: defaults}
}

// StartRequest carries the caller's optional identifier overrides.
type StartRequest struct {
	AvatarID string
	VoiceID  string
	PoseName string
}

// StartSession runs create-session and create-token upstream and stores the
// record only once both succeed. A prior record is silently overwritten.
func (s *AvatarService) StartSession(ctx context.Context, req StartRequest) (domain.StreamSession, error) {
	avatarID := strings.TrimSpace(fallback(req.AvatarID, s.defaults.AvatarID))
	voiceID := strings.TrimSpace(fallback(req.VoiceID, s.defaults.VoiceID))
	poseName := strings.TrimSpace(fallback(req.PoseName, s.defaults.PoseName))

	res, err := s.provider.NewSession(ctx, avatarID, voiceID)
	if err != nil {
		return domain.StreamSession{}, err
	}
	logOfferSummary(res.OfferSDP)

	token, err := s.provider.CreateToken(ctx, res.SessionID)
	if err != nil {
		return domain.StreamSession{}, err
	}

	sess := domain.StreamSession{
		ID:         domain.SessionID(res.SessionID),
		Token:      domain.SessionToken(token),
		OfferSDP:   res.OfferSDP,
		RTCConfig:  domain.RTCConfig{ICEServers: res.ICEServers},
		AvatarName: poseName,
	}
	s.store.Set(sess)
	return sess, nil
}

// SubmitAnswer relays the browser's SDP answer using the stored token unless
// the caller supplies an explicit override.
func (s *AvatarService) SubmitAnswer(ctx context.Context, sessionID, answerSDP, tokenOverride string) (int, error) {
	token := tokenOverride
	if token == "" {
		if cur, ok := s.store.Get(); ok {
			token = string(cur.Token)
		}
	}
	if token == "" {
		return 0, ErrTokenRequired
	}
	return s.provider.Start(ctx, sessionID, answerSDP, token)
}

// SendTask relays an utterance to the active session. Without an id+token
// pair, from the caller or the record, it rejects before any upstream call.
func (s *AvatarService) SendTask(ctx context.Context, text, sessionID, tokenOverride string) (int, error) {
	sid, token := s.resolve(sessionID, tokenOverride)
	if sid == "" || token == "" {
		return 0, ErrNoActiveSession
	}
	return s.provider.Task(ctx, sid, text, token)
}

// StopSession issues the upstream stop with whatever identifiers are at hand
// and clears the record unconditionally, upstream failure included. With no
// id+token pair there is nothing to stop and the call is a no-op success;
// the returned bool reports whether a stop was actually attempted.
func (s *AvatarService) StopSession(ctx context.Context, sessionID, tokenOverride string) (bool, error) {
	sid, token := s.resolve(sessionID, tokenOverride)
	if sid == "" || token == "" {
		return false, nil
	}
	defer s.store.Clear()
	if err := s.provider.Stop(ctx, sid, token); err != nil {
		return true, err
	}
	return true, nil
}

func (s *AvatarService) resolve(sessionID, token string) (string, string) {
	cur, ok := s.store.Get()
	if sessionID == "" && ok {
		sessionID = string(cur.ID)
	}
	if token == "" && ok {
		token = string(cur.Token)
	}
	return sessionID, token
}

// logOfferSummary records what the upstream offer negotiates. A malformed
// offer is the browser's problem to reject, so parse failures only warn.
func logOfferSummary(offerSDP string) {
	var desc sdp.SessionDescription
	if err := desc.Unmarshal([]byte(offerSDP)); err != nil {
		log.Warn().Str("module", "app.avatar").Err(err).Msg("offer SDP did not parse")
		return
	}
	kinds := make([]string, 0, len(desc.MediaDescriptions))
	for _, m := range desc.MediaDescriptions {
		kinds = append(kinds, m.MediaName.Media)
	}
	log.Info().Str("module", "app.avatar").Strs("media", kinds).Msg("upstream offer received")
}

func fallback(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
