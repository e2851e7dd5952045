package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/scentlab/avatar-relay/internal/adapters/http"
	"github.com/scentlab/avatar-relay/internal/adapters/heygen"
	"github.com/scentlab/avatar-relay/internal/adapters/media"
	"github.com/scentlab/avatar-relay/internal/adapters/openai"
	"github.com/scentlab/avatar-relay/internal/adapters/whisper"
	"github.com/scentlab/avatar-relay/internal/app"
	"github.com/scentlab/avatar-relay/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Append-only debug sink shared by upstream tracing and /api/log.
	debugFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.LogFile).Msg("failed to open debug log")
	}
	defer debugFile.Close()
	debugLog := zerolog.New(debugFile).With().Timestamp().Logger()
	debugLog.Info().Msg("--- server boot (debug on) ---")

	transcoder := media.NewTranscoder(cfg.Dynaudnorm)
	transcriber := whisper.New(whisper.Config{
		Bin:       cfg.WhisperBin,
		ModelDir:  cfg.WhisperModelDir,
		ModelName: cfg.WhisperModelName,
		Device:    cfg.WhisperDevice,
		Compute:   cfg.WhisperCompute,
		LangHint:  cfg.WhisperLangHint,
	})
	avatarProvider := heygen.NewClient(cfg.HeyGenBaseURL, cfg.HeyGenKey, debugLog)
	chatUpstream := openai.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, debugLog)

	store := app.NewSessionStore()
	avatarSvc := app.NewAvatarService(avatarProvider, store, app.AvatarDefaults{
		AvatarID: cfg.AvatarID,
		VoiceID:  cfg.VoiceID,
		PoseName: cfg.PoseName,
	})
	chatSvc := app.NewChatService(chatUpstream)
	voiceSvc := app.NewVoiceService(transcoder, chatUpstream, transcriber)

	api := router.NewAPI(cfg, avatarSvc, chatSvc, voiceSvc, transcoder, debugLog)
	r := router.SetupRouter(cfg, api)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("avatar relay started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
