package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/scentlab/avatar-relay/internal/adapters/media"
	"github.com/scentlab/avatar-relay/internal/core"
	"github.com/scentlab/avatar-relay/internal/domain"
)

// Minimum upload sizes; anything smaller cannot contain usable audio.
const (
	minVoiceChatBytes  = 1 << 10
	minTranscribeBytes = 2 << 10
)

var ErrUploadTooSmall = errors.New("empty_or_too_small")

// Stage names the pipeline step a voice-chat failure happened in, so the
// frontend can tell a transcoding failure from an upstream rejection.
type Stage string

const (
	StageRecvUpload    Stage = "recv_upload"
	StageDetectMime    Stage = "detect_mime"
	StageFFmpegConvert Stage = "ffmpeg_convert"
	StageBuildRequest  Stage = "build_request"
	StageOpenAICall    Stage = "openai_call"
	StageParseResponse Stage = "parse_response"
)

// StageError is a structured pipeline failure, never a panic.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// VoiceChatResult carries the reply plus the numbers worth echoing back for
// frontend debugging.
type VoiceChatResult struct {
	Text     string
	InExt    string
	Sniffed  domain.MimeType
	WAVBytes int
	B64Len   int
}

// VoiceService composes the audio normalizer with the chat upstream for the
// voice-input flow, and with the local transcriber for the legacy path.
type VoiceService struct {
	transcoder  core.Transcoder
	audioChat   core.AudioChatter
	transcriber core.Transcriber
}

func NewVoiceService(transcoder core.Transcoder, audioChat core.AudioChatter, transcriber core.Transcriber) *VoiceService {
	return &VoiceService{transcoder: transcoder, audioChat: audioChat, transcriber: transcriber}
}

const voiceInstruction = "Explain based on the voice chat input about perfume. Details are to be picked from the linked page when relevant."

// VoiceChat normalizes an uploaded recording and submits it to the
// audio-capable chat upstream. Failures come back as a *StageError.
func (s *VoiceService) VoiceChat(ctx context.Context, up domain.AudioUpload) (VoiceChatResult, error) {
	if len(up.Data) < minVoiceChatBytes {
		return VoiceChatResult{}, &StageError{Stage: StageRecvUpload, Err: ErrUploadTooSmall}
	}

	inExt, sniffed := media.ResolveExt(up.ContentType, up.Data)
	log.Info().Str("module", "app.voice").
		Str("content_type", up.ContentType).Str("sniff", string(sniffed)).Str("in_ext", inExt).
		Msg("voicechat mime resolved")

	wav, err := s.transcoder.Convert(ctx, up.Data, inExt, ".wav")
	if err != nil || len(wav) == 0 {
		if err == nil {
			err = errors.New("empty transcoder output")
		}
		return VoiceChatResult{InExt: inExt, Sniffed: sniffed}, &StageError{Stage: StageFFmpegConvert, Err: err}
	}

	res := VoiceChatResult{
		InExt:    inExt,
		Sniffed:  sniffed,
		WAVBytes: len(wav),
		B64Len:   base64.StdEncoding.EncodedLen(len(wav)),
	}

	text, err := s.audioChat.AudioChat(ctx, PerfumeSystemPrompt(), voiceInstruction, wav)
	if err != nil {
		return res, &StageError{Stage: StageOpenAICall, Err: err}
	}
	res.Text = text
	log.Info().Str("module", "app.voice").Int("text_len", len(text)).Msg("voicechat ok")
	return res, nil
}

// Transcribe is the legacy best-effort path: every internal failure masks as
// empty text, never an error.
func (s *VoiceService) Transcribe(ctx context.Context, up domain.AudioUpload) string {
	if len(up.Data) < minTranscribeBytes {
		return ""
	}

	inExt, _ := media.ResolveExt(up.ContentType, up.Data)
	wav, err := s.transcoder.Convert(ctx, up.Data, inExt, ".wav")
	if err != nil || len(wav) == 0 {
		log.Info().Str("module", "app.voice").Err(err).Msg("transcribe: conversion failed")
		return ""
	}

	wavPath := filepath.Join(os.TempDir(), "transcribe-"+uuid.NewString()+".wav")
	if err := os.WriteFile(wavPath, wav, 0o600); err != nil {
		log.Info().Str("module", "app.voice").Err(err).Msg("transcribe: temp write failed")
		return ""
	}
	defer os.Remove(wavPath)

	text, err := s.transcriber.Transcribe(ctx, wavPath)
	if err != nil {
		log.Info().Str("module", "app.voice").Err(err).Msg("transcribe: inference failed")
		return ""
	}
	return text
}
