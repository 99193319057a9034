// Package config loads prepvox configuration from defaults, an optional YAML
// file, and PREPVOX_-prefixed environment variables, in that order of
// precedence.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Ollama    OllamaConfig    `koanf:"ollama"`
	Storage   StorageConfig   `koanf:"storage"`
	Interview InterviewConfig `koanf:"interview"`
	Speech    SpeechConfig    `koanf:"speech"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type OllamaConfig struct {
	BaseURL   string `koanf:"base_url"`
	Model     string `koanf:"model"`
	EvalModel string `koanf:"eval_model"`
}

type StorageConfig struct {
	DataDir string `koanf:"data_dir"`
}

type InterviewConfig struct {
	Technical      int    `koanf:"technical"`
	Behavioral     int    `koanf:"behavioral"`
	Difficulty     string `koanf:"difficulty"`
	RecordSeconds  int    `koanf:"record_seconds"`
	IncludeAnswers bool   `koanf:"include_answers"`
}

type SpeechConfig struct {
	SpeakCommand      string `koanf:"speak_command"`
	RecordCommand     string `koanf:"record_command"`
	TranscribeCommand string `koanf:"transcribe_command"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4620,
		},
		Ollama: OllamaConfig{
			BaseURL:   "http://localhost:11434",
			Model:     "llama3",
			EvalModel: "llama3",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Interview: InterviewConfig{
			Technical:     5,
			Behavioral:    2,
			Difficulty:    "mixed",
			RecordSeconds: 60,
		},
		Speech: SpeechConfig{
			SpeakCommand:      "say",
			RecordCommand:     "arecord -q -f S16_LE -r 16000 -c 1 -d {seconds} {file}",
			TranscribeCommand: "whisper-cli --no-timestamps --file {file}",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "prepvox")
	}
	return ".prepvox"
}

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults
//  2. YAML file, from PREPVOX_CONFIG if set
//  3. env (prefix PREPVOX_, e.g. PREPVOX_OLLAMA.MODEL or PREPVOX_SERVER.PORT)
func Load() (Config, error) {
	cfg := defaults()

	k := koanf.New(".")

	if path := os.Getenv("PREPVOX_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, err
		}
	}

	// PREPVOX_SERVER_PORT -> server.port, PREPVOX_OLLAMA_BASE_URL -> ollama.base_url.
	envProvider := env.Provider("PREPVOX_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "PREPVOX_"))
		for _, section := range []string{"server", "ollama", "storage", "interview", "speech", "log"} {
			if strings.HasPrefix(s, section+"_") {
				return section + "." + strings.TrimPrefix(s, section+"_")
			}
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, err
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, err
	}

	if cfg.Ollama.BaseURL == "" {
		return Config{}, errors.New("ollama.base_url must not be empty")
	}
	if cfg.Ollama.Model == "" {
		return Config{}, errors.New("ollama.model must not be empty")
	}
	if cfg.Ollama.EvalModel == "" {
		cfg.Ollama.EvalModel = cfg.Ollama.Model
	}
	return cfg, nil
}
