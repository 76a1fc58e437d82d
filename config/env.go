package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "HITLABEL_"

// LoadDotEnv reads KEY=VALUE pairs from the given files into the process
// environment. Variables already set are left untouched. Missing files are
// not an error.
func LoadDotEnv(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func applyEnv(c *Config) {
	c.Debug = getEnvAsBool("DEBUG", c.Debug)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.SourceDir = getEnv("SOURCE_DIR", c.SourceDir)
	c.WindowName = getEnv("WINDOW_NAME", c.WindowName)
	c.Seed = getEnvAsInt64("SEED", c.Seed)
	c.FramesDir = getEnv("FRAMES_DIR", c.FramesDir)
	c.TriageWorkers = getEnvAsInt("TRIAGE_WORKERS", c.TriageWorkers)
	c.DatasetDir = getEnv("DATASET_DIR", c.DatasetDir)
	c.DatasetPath = getEnv("DATASET_PATH", c.DatasetPath)
	c.ImageSize = getEnvAsInt("IMAGE_SIZE", c.ImageSize)
	c.TrainerBin = getEnv("TRAINER_BIN", c.TrainerBin)
	c.BaseModel = getEnv("BASE_MODEL", c.BaseModel)
	c.Epochs = getEnvAsInt("EPOCHS", c.Epochs)
	c.ModelPath = getEnv("MODEL_PATH", c.ModelPath)
	c.ConfThreshold = getEnvAsFloat("CONF_THRESHOLD", c.ConfThreshold)
	c.RecordDir = getEnv("RECORD_DIR", c.RecordDir)
	c.SaveDir = getEnv("SAVE_DIR", c.SaveDir)
	c.SaveThreshold = getEnvAsFloat("SAVE_THRESHOLD", c.SaveThreshold)
	c.LiveFPS = getEnvAsInt("LIVE_FPS", c.LiveFPS)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
