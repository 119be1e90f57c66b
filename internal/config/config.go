package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Transcode  TranscodeConfig
	Model      ModelConfig
	Classifier ClassifierConfig
	Pipeline   PipelineConfig
}

type ServerConfig struct {
	Port        string
	Environment string
	StaticDir   string
	MaxUploadMB int64
}

type StorageConfig struct {
	UploadDir string
}

type TranscodeConfig struct {
	FFmpegPath string
}

// ModelConfig describes where the speech model is cached and fetched from.
type ModelConfig struct {
	Dir         string
	URL         string
	File        string
	Language    string
	ChunkFrames int
}

type ClassifierConfig struct {
	Backend       string // gemini, openai, local
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	GatewayURL    string
	GatewayAPIKey string
	GatewayModel  string
	MaxRetries    int
	Timeout       time.Duration
	LexiconPath   string
	UseMock       bool
}

type PipelineConfig struct {
	Timeout time.Duration
}

func Load() (*Config, error) {
	var errs []string

	maxUpload, err := getEnvInt("MAX_UPLOAD_MB", 25)
	if err != nil {
		errs = append(errs, err.Error())
	}
	chunk, err := getEnvInt("CHUNK_FRAMES", 4000)
	if err != nil {
		errs = append(errs, err.Error())
	}
	retries, err := getEnvInt("CLASSIFIER_MAX_RETRIES", 0)
	if err != nil {
		errs = append(errs, err.Error())
	}
	clsTimeout, err := getEnvDuration("CLASSIFIER_TIMEOUT", 20*time.Second)
	if err != nil {
		errs = append(errs, err.Error())
	}
	pipeTimeout, err := getEnvDuration("PIPELINE_TIMEOUT", 90*time.Second)
	if err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "5000"),
			Environment: getEnv("ENVIRONMENT", "local"),
			StaticDir:   getEnv("STATIC_DIR", "./web"),
			MaxUploadMB: int64(maxUpload),
		},
		Storage: StorageConfig{
			UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
		},
		Transcode: TranscodeConfig{
			FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),
		},
		Model: ModelConfig{
			Dir:         getEnv("MODEL_DIR", "./models/ggml-base.en"),
			URL:         getEnv("MODEL_URL", "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.en.bin"),
			File:        getEnv("MODEL_FILE", "ggml-base.en.bin"),
			Language:    getEnv("MODEL_LANGUAGE", "en"),
			ChunkFrames: chunk,
		},
		Classifier: ClassifierConfig{
			Backend:       strings.ToLower(getEnv("CLASSIFIER_BACKEND", "gemini")),
			GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash-preview-09-2025"),
			GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			GatewayURL:    os.Getenv("LLM_GATEWAY_URL"),
			GatewayAPIKey: os.Getenv("LLM_API_KEY"),
			GatewayModel:  getEnv("LLM_MODEL", "gpt-4o-mini"),
			MaxRetries:    retries,
			Timeout:       clsTimeout,
			LexiconPath:   os.Getenv("LEXICON_PATH"),
			UseMock:       os.Getenv("USE_MOCK_LLM") == "true",
		},
		Pipeline: PipelineConfig{
			Timeout: pipeTimeout,
		},
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", c.Server.Port))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, "MAX_UPLOAD_MB must be positive")
	}
	if c.Storage.UploadDir == "" {
		errs = append(errs, "UPLOAD_DIR is required")
	}
	if c.Model.Dir == "" {
		errs = append(errs, "MODEL_DIR is required")
	}
	if c.Model.ChunkFrames <= 0 {
		errs = append(errs, "CHUNK_FRAMES must be positive")
	}
	if c.Classifier.MaxRetries < 0 {
		errs = append(errs, "CLASSIFIER_MAX_RETRIES cannot be negative")
	}

	if !c.Classifier.UseMock {
		switch c.Classifier.Backend {
		case "gemini":
			if c.Classifier.GeminiAPIKey == "" {
				errs = append(errs, "GEMINI_API_KEY is required for the gemini classifier")
			}
		case "openai":
			if c.Classifier.GatewayAPIKey == "" {
				errs = append(errs, "LLM_API_KEY is required for the openai classifier")
			}
		case "local":
		default:
			errs = append(errs, fmt.Sprintf("invalid CLASSIFIER_BACKEND: %s (must be: gemini, openai, local)", c.Classifier.Backend))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// LoadValid loads the configuration and rejects it unless Validate passes.
func LoadValid() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %q is not an integer", key, v)
	}
	return n, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %q is not a duration", key, v)
	}
	return d, nil
}
