package engine

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gcbaptista/bookmark-engine/internal/errors"
	"github.com/gcbaptista/bookmark-engine/model"
)

// RefreshMetadata schedules a background metadata fetch for a stored bookmark
// and returns the job ID.
func (l *Library) RefreshMetadata(_ context.Context, id string) (string, error) {
	b, ok := l.items.GetBookmark(id)
	if !ok {
		return "", errors.NewBookmarkNotFoundError(id)
	}
	if l.metadata == nil || l.jobs == nil {
		return "", fmt.Errorf("metadata fetching is disabled")
	}
	jobID := l.scheduleMetadataFetch(b)
	if jobID == "" {
		return "", fmt.Errorf("failed to start metadata job for bookmark '%s'", id)
	}
	return jobID, nil
}

// scheduleMetadataFetch starts a fetch_metadata job for b. It returns an empty
// ID when background fetching is unavailable.
func (l *Library) scheduleMetadataFetch(b *model.Bookmark) string {
	if l.metadata == nil || l.jobs == nil {
		return ""
	}

	jobID := l.jobs.CreateJob(model.JobTypeFetchMetadata, b.ID, map[string]string{
		"url": b.URL,
	})
	err := l.jobs.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return l.executeFetchMetadataJob(ctx, job)
	})
	if err != nil {
		l.logger.WithError(err).WithField("bookmark_id", b.ID).Warn("Failed to start metadata job")
		return ""
	}
	return jobID
}

// executeFetchMetadataJob fetches the page of the job's bookmark and stores the
// metadata on it. Titles and descriptions are left as the user entered them.
func (l *Library) executeFetchMetadataJob(ctx context.Context, job *model.Job) error {
	l.jobs.UpdateJobProgress(job.ID, 0, 2, "fetching page")

	fetchCtx, cancel := context.WithTimeout(ctx, l.metadataTimeout)
	defer cancel()

	md, err := l.metadata.Fetch(fetchCtx, job.Metadata["url"])
	if err != nil {
		return err
	}
	if md == nil {
		return fmt.Errorf("no metadata returned for '%s'", job.Metadata["url"])
	}
	l.jobs.UpdateJobProgress(job.ID, 1, 2, "saving metadata")

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.items.GetBookmark(job.BookmarkID)
	if !ok {
		return errors.NewBookmarkNotFoundError(job.BookmarkID)
	}
	if b.URL != job.Metadata["url"] {
		l.jobs.UpdateJobProgress(job.ID, 2, 2, "url changed, metadata discarded")
		return nil
	}
	b.Metadata = md
	l.items.PutBookmark(b)
	if err := l.items.Save(ctx); err != nil {
		return err
	}

	l.jobs.UpdateJobProgress(job.ID, 2, 2, "done")
	l.logger.WithFields(logrus.Fields{
		"bookmark_id": b.ID,
		"keywords":    len(md.Keywords),
	}).Debug("Stored background metadata")
	return nil
}
