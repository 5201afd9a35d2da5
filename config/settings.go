// Package config provides configuration structures for the bookmark engine.
// It defines search, clustering, storage, server, metadata and logging settings.
package config

import (
	"strconv"
	"strings"
	"time"
)

// SearchSettings tunes the BM25 ranker.
type SearchSettings struct {
	K1 float64 `json:"k1"` // Term frequency saturation (default 1.5)
	B  float64 `json:"b"`  // Document length normalization, between 0 and 1 (default 0.75)
}

// ClusteringSettings tunes the online clustering engine.
//
// IDFWeighting defaults to "standard", idf = ln(N/df). A term found in every
// document weighs 0, so while the library holds only a handful of bookmarks two
// closely related ones can still land in separate clusters: with two documents
// every shared term vanishes. "smooth", idf = ln((1+N)/(1+df))+1, keeps shared
// terms positive and groups them from the second bookmark on.
type ClusteringSettings struct {
	SimilarityThreshold float64 `json:"similarity_threshold"` // Minimum cosine similarity to join a cluster
	MaxClusterSize      int     `json:"max_cluster_size"`     // Soft cap above which a cluster is flagged over capacity
	MinClusterSize      int     `json:"min_cluster_size"`     // Recorded for a future split policy
	IDFWeighting        string  `json:"idf_weighting"`        // "standard" or "smooth"
	Stemming            bool    `json:"stemming"`             // Apply English stemming to clustering tokens
}

// StorageSettings selects the persistence backend.
type StorageSettings struct {
	Backend string `json:"backend"`  // "memory", "gob" or "sqlite"
	DataDir string `json:"data_dir"` // Directory for gob files or the SQLite database
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Port string `json:"port"`
}

// MetadataSettings configures page metadata fetching.
type MetadataSettings struct {
	Enabled       bool          `json:"enabled"`
	Timeout       time.Duration `json:"timeout"`
	UserAgent     string        `json:"user_agent"`
	RespectRobots bool          `json:"respect_robots"`
	Workers       int           `json:"workers"` // Concurrent background metadata jobs
}

// LogSettings configures the logger.
type LogSettings struct {
	Level  string `json:"level"`  // logrus level name
	Format string `json:"format"` // "text" or "json"
}

// Settings contains every configuration option of the engine.
type Settings struct {
	Search     SearchSettings     `json:"search"`
	Clustering ClusteringSettings `json:"clustering"`
	Storage    StorageSettings    `json:"storage"`
	Server     ServerSettings     `json:"server"`
	Metadata   MetadataSettings   `json:"metadata"`
	Log        LogSettings        `json:"log"`
}

// Default returns settings with every default applied.
func Default() Settings {
	settings := Settings{
		Metadata: MetadataSettings{Enabled: true, RespectRobots: true},
	}
	settings.ApplyDefaults()
	return settings
}

// ApplyDefaults fills zero values with the defaults. Boolean switches are left as they are.
func (settings *Settings) ApplyDefaults() {
	if settings.Search.K1 == 0 {
		settings.Search.K1 = 1.5
	}
	if settings.Search.B == 0 {
		settings.Search.B = 0.75
	}

	if settings.Clustering.SimilarityThreshold == 0 {
		settings.Clustering.SimilarityThreshold = 0.25
	}
	if settings.Clustering.MaxClusterSize == 0 {
		settings.Clustering.MaxClusterSize = 50
	}
	if settings.Clustering.MinClusterSize == 0 {
		settings.Clustering.MinClusterSize = 3
	}
	if settings.Clustering.IDFWeighting == "" {
		settings.Clustering.IDFWeighting = "standard"
	}

	if settings.Storage.Backend == "" {
		settings.Storage.Backend = "gob"
	}
	if settings.Storage.DataDir == "" {
		settings.Storage.DataDir = "./bookmark_data"
	}

	if settings.Server.Port == "" {
		settings.Server.Port = "8080"
	}

	if settings.Metadata.Timeout == 0 {
		settings.Metadata.Timeout = 10 * time.Second
	}
	if settings.Metadata.UserAgent == "" {
		settings.Metadata.UserAgent = "BookmarkEngine/1.0"
	}
	if settings.Metadata.Workers == 0 {
		settings.Metadata.Workers = 2
	}

	if settings.Log.Level == "" {
		settings.Log.Level = "info"
	}
	if settings.Log.Format == "" {
		settings.Log.Format = "text"
	}
}

// Validate returns one message per invalid setting, or nil when all are valid.
func (settings *Settings) Validate() []string {
	var errors []string

	if settings.Search.K1 <= 0 {
		errors = append(errors, "search.k1 must be positive")
	}
	if settings.Search.B < 0 || settings.Search.B > 1 {
		errors = append(errors, "search.b must be between 0 and 1")
	}

	if settings.Clustering.SimilarityThreshold <= 0 || settings.Clustering.SimilarityThreshold > 1 {
		errors = append(errors, "clustering.similarity_threshold must be in (0, 1]")
	}
	if settings.Clustering.MaxClusterSize < 1 {
		errors = append(errors, "clustering.max_cluster_size must be at least 1")
	}
	if settings.Clustering.MinClusterSize < 1 {
		errors = append(errors, "clustering.min_cluster_size must be at least 1")
	}
	if settings.Clustering.MinClusterSize > settings.Clustering.MaxClusterSize {
		errors = append(errors, "clustering.min_cluster_size cannot exceed max_cluster_size")
	}
	errors = append(errors, checkOneOf("clustering.idf_weighting", settings.Clustering.IDFWeighting, "standard", "smooth")...)

	errors = append(errors, checkOneOf("storage.backend", settings.Storage.Backend, "memory", "gob", "sqlite")...)
	if settings.Storage.Backend != "memory" && strings.TrimSpace(settings.Storage.DataDir) == "" {
		errors = append(errors, "storage.data_dir cannot be empty")
	}

	if port, err := strconv.Atoi(settings.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, "server.port '"+settings.Server.Port+"' is not a valid port")
	}

	if settings.Metadata.Timeout < 0 {
		errors = append(errors, "metadata.timeout cannot be negative")
	}
	if settings.Metadata.Workers < 1 {
		errors = append(errors, "metadata.workers must be at least 1")
	}

	errors = append(errors, checkOneOf("log.level", settings.Log.Level, "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic")...)
	errors = append(errors, checkOneOf("log.format", settings.Log.Format, "text", "json")...)

	return errors
}

// checkOneOf returns an error message when value is not among allowed
func checkOneOf(fieldName, value string, allowed ...string) []string {
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}
	return []string{"Invalid value '" + value + "' for " + fieldName + " (must be one of " + strings.Join(allowed, ", ") + ")"}
}
