package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/scentlab/avatar-relay/internal/core"
)

// ErrTranscoderUnavailable is returned by the unavailable variant; callers
// treat it like any other conversion failure.
var ErrTranscoderUnavailable = errors.New("ffmpeg not on PATH")

// NewTranscoder resolves the external transcoder once. When ffmpeg is not on
// PATH the returned variant fails every conversion without raising.
func NewTranscoder(dynaudnorm bool) core.Transcoder {
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		log.Warn().Str("module", "adapters.media").Msg("ffmpeg not on PATH, transcoding disabled")
		return noTranscoder{}
	}
	return &ffmpegTranscoder{bin: bin, dynaudnorm: dynaudnorm}
}

type ffmpegTranscoder struct {
	bin        string
	dynaudnorm bool
}

func (t *ffmpegTranscoder) Available() bool { return true }

// Convert resamples arbitrary input audio to mono 16 kHz with video and
// subtitle streams stripped. The scratch directory is removed on every
// exit path.
func (t *ffmpegTranscoder) Convert(ctx context.Context, in []byte, inExt, outExt string) ([]byte, error) {
	td, err := os.MkdirTemp("", "transcode-*")
	if err != nil {
		return nil, fmt.Errorf("transcode scratch dir: %w", err)
	}
	defer os.RemoveAll(td)

	inPath := filepath.Join(td, "in"+inExt)
	outPath := filepath.Join(td, "out"+outExt)
	if err := os.WriteFile(inPath, in, 0o600); err != nil {
		return nil, fmt.Errorf("transcode input write: %w", err)
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", inPath,
		"-ar", "16000", "-ac", "1", "-vn", "-sn"}
	if t.dynaudnorm {
		args = append(args, "-af", "dynaudnorm")
	}
	args = append(args, outPath)

	cmd := exec.CommandContext(ctx, t.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		log.Error().Str("module", "adapters.media").Err(err).
			Str("stderr", strings.TrimSpace(stderr.String())).Msg("ffmpeg convert failed")
		return nil, fmt.Errorf("ffmpeg convert %s->%s: %w", inExt, outExt, err)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("transcode output read: %w", err)
	}
	log.Info().Str("module", "adapters.media").
		Str("in_ext", inExt).Str("out_ext", outExt).Int("out_bytes", len(out)).Msg("converted")
	return out, nil
}

type noTranscoder struct{}

func (noTranscoder) Available() bool { return false }

func (noTranscoder) Convert(context.Context, []byte, string, string) ([]byte, error) {
	return nil, ErrTranscoderUnavailable
}
