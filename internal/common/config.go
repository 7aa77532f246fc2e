package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	OCR      OCRConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Server   ServerConfig
	History  HistoryConfig
}

// OCRConfig holds text-acquisition configuration. Binary paths left empty
// here are resolved by ocr.Discover at process start.
type OCRConfig struct {
	Pdftotext    string
	Pdftoppm     string
	Tesseract    string
	Language     string
	DPI          int
	PSM          int
	MaxPages     int
	MinTextChars int
}

// LLMConfig holds extraction-service configuration
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// PipelineConfig holds orchestration configuration
type PipelineConfig struct {
	MaxContextTokens int
	ArtifactDir      string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr        string
	MaxUploadMB int64
}

// HistoryConfig holds the optional run-history store configuration.
// An empty Path disables the store.
type HistoryConfig struct {
	Path string
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is honored when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		OCR: OCRConfig{
			Pdftotext:    getEnv("PDFTOTEXT_PATH", ""),
			Pdftoppm:     getEnv("PDFTOPPM_PATH", ""),
			Tesseract:    getEnv("TESSERACT_PATH", ""),
			Language:     getEnv("TESSERACT_LANG", "eng"),
			DPI:          getEnvAsInt("OCR_DPI", 300),
			PSM:          getEnvAsInt("OCR_PSM", 6),
			MaxPages:     getEnvAsInt("OCR_MAX_PAGES", 0),
			MinTextChars: getEnvAsInt("OCR_MIN_TEXT_CHARS", 100),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("OPENROUTER_API_KEY", ""),
			BaseURL:     getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnv("OPENROUTER_MODEL", "meta-llama/llama-3.1-8b-instruct"),
			Temperature: getEnvAsFloat32("OPENROUTER_TEMPERATURE", 0.1),
			MaxTokens:   getEnvAsInt("OPENROUTER_MAX_TOKENS", 6000),
			Timeout:     getEnvAsDuration("OPENROUTER_TIMEOUT", 30*time.Second),
		},
		Pipeline: PipelineConfig{
			MaxContextTokens: getEnvAsInt("MAX_CONTEXT_TOKENS", 7000),
			ArtifactDir:      getEnv("ARTIFACT_DIR", "./tmp"),
		},
		Server: ServerConfig{
			Addr:        getEnv("HTTP_ADDR", ":8080"),
			MaxUploadMB: int64(getEnvAsInt("MAX_UPLOAD_MB", 50)),
		},
		History: HistoryConfig{
			Path: getEnv("HISTORY_DB", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENROUTER_API_KEY is required", ErrInvalidInput)
	}
	if c.Pipeline.MaxContextTokens <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_CONTEXT_TOKENS must be positive", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
