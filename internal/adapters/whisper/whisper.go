// Package whisper runs the local whisper.cpp CLI for the legacy, best-effort
// transcription path. Every failure degrades to an error the pipeline maps
// to empty text; nothing here is fatal.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scentlab/avatar-relay/internal/core"
)

var ErrUnavailable = errors.New("whisper binary or model not installed")

type Config struct {
	Bin       string
	ModelDir  string
	ModelName string // tiny, base, small, medium, large-v3
	Device    string
	Compute   string
	LangHint  string // ISO 639-1 code; empty means auto-detect
}

// New resolves the transcriber once at startup. Missing binary or model file
// yields the unavailable variant.
func New(cfg Config) core.Transcriber {
	bin, err := exec.LookPath(cfg.Bin)
	if err != nil {
		log.Warn().Str("module", "adapters.whisper").Str("bin", cfg.Bin).
			Msg("whisper binary not found, local transcription disabled")
		return unavailable{}
	}
	model := filepath.Join(cfg.ModelDir, "ggml-"+cfg.ModelName+".bin")
	if _, err := os.Stat(model); err != nil {
		log.Warn().Str("module", "adapters.whisper").Str("model", model).
			Msg("whisper model not found, local transcription disabled")
		return unavailable{}
	}
	// Device and compute precision are build-time properties of whisper.cpp;
	// recorded here so operators can see what the knobs resolved to.
	log.Info().Str("module", "adapters.whisper").
		Str("model", cfg.ModelName).Str("device", cfg.Device).Str("compute", cfg.Compute).
		Msg("local transcriber ready")
	return &cli{bin: bin, model: model, lang: cfg.LangHint}
}

type cli struct {
	bin   string
	model string
	lang  string
}

// Transcribe runs whisper with VAD filtering and beam width one, then joins
// the non-empty transcript lines with single spaces. Scratch files are
// removed on every exit path.
func (c *cli) Transcribe(ctx context.Context, wavPath string) (string, error) {
	outPrefix := filepath.Join(os.TempDir(), fmt.Sprintf("whisper_out_%d", time.Now().UnixNano()))
	txtPath := outPrefix + ".txt"
	defer os.Remove(txtPath)

	args := []string{"-m", c.model, "-f", wavPath, "-otxt", "-of", outPrefix, "-nt", "-bs", "1", "--vad"}
	if c.lang != "" {
		args = append(args, "-l", c.lang)
	}
	cmd := exec.CommandContext(ctx, c.bin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		log.Info().Str("module", "adapters.whisper").Err(err).
			Str("output", core.Excerpt(out, 400)).Msg("whisper run failed")
		return "", fmt.Errorf("whisper run: %w", err)
	}

	data, err := os.ReadFile(txtPath)
	if err != nil {
		return "", fmt.Errorf("whisper transcript read: %w", err)
	}

	var parts []string
	for _, line := range strings.Split(string(data), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			parts = append(parts, s)
		}
	}
	text := strings.Join(parts, " ")
	log.Info().Str("module", "adapters.whisper").Int("chars", len(text)).Msg("transcribed")
	return text, nil
}

type unavailable struct{}

func (unavailable) Transcribe(context.Context, string) (string, error) {
	return "", ErrUnavailable
}
