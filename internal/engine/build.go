package engine

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gcbaptista/bookmark-engine/config"
	"github.com/gcbaptista/bookmark-engine/internal/clustering"
	"github.com/gcbaptista/bookmark-engine/internal/jobs"
	"github.com/gcbaptista/bookmark-engine/internal/metadata"
	"github.com/gcbaptista/bookmark-engine/internal/persistence"
	"github.com/gcbaptista/bookmark-engine/internal/search"
	"github.com/gcbaptista/bookmark-engine/internal/tfidf"
	"github.com/gcbaptista/bookmark-engine/store"
)

const dataDirPerm = 0755

// ClusteringOptions converts the clustering settings into engine options.
func ClusteringOptions(settings config.ClusteringSettings) clustering.Options {
	return clustering.Options{
		SimilarityThreshold: settings.SimilarityThreshold,
		MaxClusterSize:      settings.MaxClusterSize,
		MinClusterSize:      settings.MinClusterSize,
		Weighting:           tfidf.Weighting(settings.IDFWeighting),
		Stemming:            settings.Stemming,
	}
}

// Build validates settings, opens the configured store and returns an opened
// Library. Close releases the store and stops the job workers.
func Build(ctx context.Context, settings config.Settings, logger logrus.FieldLogger) (*Library, error) {
	settings.ApplyDefaults()
	if problems := settings.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if settings.Storage.Backend != persistence.BackendMemory {
		if err := os.MkdirAll(settings.Storage.DataDir, dataDirPerm); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", settings.Storage.DataDir, err)
		}
	}
	backend, err := persistence.Open(settings.Storage.Backend, settings.Storage.DataDir)
	if err != nil {
		return nil, err
	}

	deps := Dependencies{
		Items:           store.NewItemStore(backend),
		Organizer:       clustering.New(backend, ClusteringOptions(settings.Clustering), logger),
		Searcher:        search.NewService(settings.Search.K1, settings.Search.B, logger),
		MetadataTimeout: settings.Metadata.Timeout,
		Logger:          logger,
	}
	if settings.Metadata.Enabled {
		deps.Metadata = metadata.NewFetcher(metadata.FetcherOptions{
			Timeout:       settings.Metadata.Timeout,
			UserAgent:     settings.Metadata.UserAgent,
			RespectRobots: settings.Metadata.RespectRobots,
		}, logger)
		deps.Jobs = jobs.NewManager(settings.Metadata.Workers, logger)
		deps.Jobs.Start()
	}

	lib := New(deps)
	lib.closers = append(lib.closers, func() error { return persistence.Close(backend) })

	if err := lib.Open(ctx); err != nil {
		_ = lib.Close()
		return nil, err
	}
	return lib, nil
}

// Jobs returns the job manager, or nil when background fetching is disabled.
func (l *Library) Jobs() *jobs.Manager {
	return l.jobs
}
