package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads a .env file when present, then overlays BOOKMARK_* environment
// variables on the defaults.
func Load() Settings {
	_ = godotenv.Load()
	return FromEnv(Default())
}

// FromEnv returns base with every set BOOKMARK_* variable applied. Unparseable
// values keep the base value.
func FromEnv(base Settings) Settings {
	s := base

	s.Storage.DataDir = GetStringEnv("BOOKMARK_DATA_DIR", s.Storage.DataDir)
	s.Storage.Backend = GetStringEnv("BOOKMARK_STORAGE", s.Storage.Backend)
	s.Server.Port = GetStringEnv("BOOKMARK_PORT", s.Server.Port)

	s.Clustering.SimilarityThreshold = GetFloatEnv("BOOKMARK_SIMILARITY_THRESHOLD", s.Clustering.SimilarityThreshold)
	s.Clustering.MaxClusterSize = GetIntEnv("BOOKMARK_MAX_CLUSTER_SIZE", s.Clustering.MaxClusterSize)
	s.Clustering.IDFWeighting = GetStringEnv("BOOKMARK_IDF_WEIGHTING", s.Clustering.IDFWeighting)
	s.Clustering.Stemming = GetBoolEnv("BOOKMARK_STEMMING", s.Clustering.Stemming)

	s.Metadata.Enabled = GetBoolEnv("BOOKMARK_METADATA_ENABLED", s.Metadata.Enabled)
	s.Metadata.Timeout = GetDurationEnv("BOOKMARK_METADATA_TIMEOUT", s.Metadata.Timeout)
	s.Metadata.UserAgent = GetStringEnv("BOOKMARK_USER_AGENT", s.Metadata.UserAgent)
	s.Metadata.RespectRobots = GetBoolEnv("BOOKMARK_RESPECT_ROBOTS", s.Metadata.RespectRobots)

	s.Log.Level = GetStringEnv("BOOKMARK_LOG_LEVEL", s.Log.Level)
	s.Log.Format = GetStringEnv("BOOKMARK_LOG_FORMAT", s.Log.Format)

	return s
}

func GetStringEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
