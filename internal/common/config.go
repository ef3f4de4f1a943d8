package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Inference InferenceConfig
	Extract   ExtractConfig
	OCR       OCRConfig
	Output    OutputConfig
	Store     StoreConfig
}

// InferenceConfig holds remote inference endpoint configuration
type InferenceConfig struct {
	ServerURL   string // empty disables model extraction
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float32
}

// ExtractConfig holds hybrid engine thresholds and flags
type ExtractConfig struct {
	AcceptThreshold   float32 // model confidence gate
	PatternConfidence float32
	UseFallback       bool
	ProbeHealth       bool
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract string
	Pdftotext string
	Pdftoppm  string
	Language  string
	DPI       int
	MaxPages  int
}

// OutputConfig holds writer-layer configuration
type OutputConfig struct {
	Format string // json | csv | xlsx
	Path   string
}

// StoreConfig holds the local archive configuration
type StoreConfig struct {
	Path string // sqlite file; empty disables archiving
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Inference: InferenceConfig{
			ServerURL:   getEnv("INFERENCE_URL", ""),
			Model:       getEnv("INFERENCE_MODEL", "Qwen/Qwen3-0.6B"),
			Timeout:     getEnvAsDuration("INFERENCE_TIMEOUT", 30*time.Second),
			MaxRetries:  getEnvAsInt("INFERENCE_MAX_RETRIES", 3),
			MaxTokens:   getEnvAsInt("INFERENCE_MAX_TOKENS", 512),
			Temperature: getEnvAsFloat32("INFERENCE_TEMPERATURE", 0.1),
		},
		Extract: ExtractConfig{
			AcceptThreshold:   getEnvAsFloat32("EXTRACT_ACCEPT_THRESHOLD", 0.5),
			PatternConfidence: getEnvAsFloat32("EXTRACT_PATTERN_CONFIDENCE", 0.6),
			UseFallback:       getEnvAsBool("EXTRACT_USE_FALLBACK", true),
			ProbeHealth:       getEnvAsBool("EXTRACT_PROBE_HEALTH", true),
		},
		OCR: OCRConfig{
			Tesseract: getEnv("TESSERACT_CMD", "tesseract"),
			Pdftotext: getEnv("PDFTOTEXT_CMD", "pdftotext"),
			Pdftoppm:  getEnv("PDFTOPPM_CMD", "pdftoppm"),
			Language:  getEnv("OCR_LANGUAGE", "eng"),
			DPI:       getEnvAsInt("OCR_DPI", 300),
			MaxPages:  getEnvAsInt("OCR_MAX_PAGES", 0),
		},
		Output: OutputConfig{
			Format: getEnv("OUTPUT_FORMAT", "json"),
			Path:   getEnv("OUTPUT_FILE", "claims.json"),
		},
		Store: StoreConfig{
			Path: getEnv("STORE_PATH", ""),
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
	if c.Extract.AcceptThreshold < 0 || c.Extract.AcceptThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "EXTRACT_ACCEPT_THRESHOLD must be in [0,1]", ErrInvalidInput)
	}
	if c.Extract.PatternConfidence < 0 || c.Extract.PatternConfidence > 1 {
		return NewAppError("CONFIG_ERROR", "EXTRACT_PATTERN_CONFIDENCE must be in [0,1]", ErrInvalidInput)
	}
	switch c.Output.Format {
	case "json", "csv", "xlsx":
	default:
		return NewAppError("CONFIG_ERROR", "OUTPUT_FORMAT must be one of json|csv|xlsx", ErrInvalidInput)
	}
	if c.Inference.ServerURL != "" && c.Inference.MaxRetries < 1 {
		return NewAppError("CONFIG_ERROR", "INFERENCE_MAX_RETRIES must be >= 1", ErrInvalidInput)
	}
	return nil
}
