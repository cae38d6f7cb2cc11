// Package config loads assistant configuration from a YAML file and AIDA_*
// environment variables.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds everything the assistant reads at startup. It is never
// mutated after loading.
type Config struct {
	// OllamaBaseURL is the OpenAI-compatible endpoint of the local model
	// server.
	OllamaBaseURL string `mapstructure:"ollama_base_url"`

	ChatModel    string `mapstructure:"chat_model"`
	SummaryModel string `mapstructure:"summary_model"`
	RouterModel  string `mapstructure:"router_model"`

	// RecentTurns is how many conversation turns stay verbatim before the
	// summarizer compresses older ones.
	RecentTurns int `mapstructure:"recent_turns"`

	// StreamingSpeech speaks dialogue responses in sentence-sized chunks
	// as they generate instead of waiting for the full response.
	StreamingSpeech bool `mapstructure:"streaming_speech"`

	// InputMode is "voice" for microphone capture or "text" for keyboard.
	InputMode string `mapstructure:"input_mode"`

	// SpeechServerURL is the websocket endpoint of the local synthesis
	// server.
	SpeechServerURL string `mapstructure:"speech_server_url"`

	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`

	// DataDir holds the SQLite databases.
	DataDir string `mapstructure:"data_dir"`
}

const (
	InputModeVoice = "voice"
	InputModeText  = "text"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("ollama_base_url", "http://localhost:11434")
	v.SetDefault("chat_model", "llama3.2:latest")
	v.SetDefault("summary_model", "gemma3:12b")
	v.SetDefault("router_model", "functiongemma")
	v.SetDefault("recent_turns", 6)
	v.SetDefault("streaming_speech", false)
	v.SetDefault("input_mode", InputModeVoice)
	v.SetDefault("speech_server_url", "ws://localhost:8765/speak")
	v.SetDefault("latitude", 45.8150)
	v.SetDefault("longitude", 15.9819)
	v.SetDefault("data_dir", "data")
}

// Load reads configuration from the optional file at configPath (or
// ./aida.yaml when empty) with AIDA_* environment variables taking
// precedence. A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AIDA")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("aida")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/aida")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.InputMode != InputModeVoice && cfg.InputMode != InputModeText {
		return nil, fmt.Errorf("invalid input mode %q", cfg.InputMode)
	}
	if cfg.RecentTurns <= 0 {
		return nil, fmt.Errorf("recent_turns must be positive, got %d", cfg.RecentTurns)
	}

	return &cfg, nil
}
