package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string `mapstructure:"mode"`
	Port       int    `mapstructure:"port"`
	StaticPath string `mapstructure:"static_path"`
	LogFile    string `mapstructure:"log_file"`

	OpenAIKey     string `mapstructure:"openai_api_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`

	HeyGenKey     string `mapstructure:"heygen_api_key"`
	HeyGenBaseURL string `mapstructure:"heygen_base_url"`
	AvatarID      string `mapstructure:"heygen_avatar_id"`
	VoiceID       string `mapstructure:"heygen_voice_id"`
	PoseName      string `mapstructure:"heygen_pose_name"`

	WhisperBin       string `mapstructure:"whisper_bin"`
	WhisperModelDir  string `mapstructure:"whisper_model_dir"`
	WhisperModelName string `mapstructure:"whisper_model_name"`
	WhisperDevice    string `mapstructure:"whisper_device"`
	WhisperCompute   string `mapstructure:"whisper_compute"`
	WhisperLangHint  string `mapstructure:"whisper_lang_hint"`

	Dynaudnorm bool `mapstructure:"audio_dynaudnorm"`
}

// Load reads configuration from the environment, with an optional .env file
// underneath it. Env always wins over the file; defaults fill the rest.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8000)
	v.SetDefault("static_path", "./frontend")
	v.SetDefault("log_file", "debug.txt")

	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")

	v.SetDefault("heygen_api_key", "")
	v.SetDefault("heygen_base_url", "https://api.heygen.com")
	v.SetDefault("heygen_avatar_id", "June_HR_public")
	v.SetDefault("heygen_voice_id", "68dedac41a9f46a6a4271a95c733823c")
	v.SetDefault("heygen_pose_name", "June HR")

	v.SetDefault("whisper_bin", "whisper-cli")
	v.SetDefault("whisper_model_dir", "./models")
	v.SetDefault("whisper_model_name", "base")
	v.SetDefault("whisper_device", "auto")
	v.SetDefault("whisper_compute", "int8")
	v.SetDefault("whisper_lang_hint", "")

	v.SetDefault("audio_dynaudnorm", true)

	// Keys and defaults keep the frontend working regardless of CWD.
	if _, err := os.Stat(".env"); err == nil {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
