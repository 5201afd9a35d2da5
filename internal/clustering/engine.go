// Package clustering groups bookmarks online: each new bookmark is vectorized with
// TF-IDF and joins the cluster whose centroid is most similar, or founds a new one.
//
// The engine is not safe for concurrent use. Callers serialize AddBookmark and Reset.
package clustering

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gcbaptista/bookmark-engine/internal/document"
	"github.com/gcbaptista/bookmark-engine/internal/errors"
	"github.com/gcbaptista/bookmark-engine/internal/persistence"
	"github.com/gcbaptista/bookmark-engine/internal/tfidf"
	"github.com/gcbaptista/bookmark-engine/internal/tokenizer"
	"github.com/gcbaptista/bookmark-engine/internal/vector"
	"github.com/gcbaptista/bookmark-engine/model"
	"github.com/gcbaptista/bookmark-engine/services"
)

// Default clustering parameters
const (
	DefaultSimilarityThreshold = 0.25
	DefaultMaxClusterSize      = 50
	DefaultMinClusterSize      = 3
)

// Options configures an Engine.
type Options struct {
	SimilarityThreshold float64
	MaxClusterSize      int
	MinClusterSize      int // recorded for a future split policy, not consulted
	Weighting           tfidf.Weighting
	Stemming            bool
}

// DefaultOptions returns the stock clustering parameters.
func DefaultOptions() Options {
	return Options{
		SimilarityThreshold: DefaultSimilarityThreshold,
		MaxClusterSize:      DefaultMaxClusterSize,
		MinClusterSize:      DefaultMinClusterSize,
		Weighting:           tfidf.WeightingStandard,
	}
}

// Engine is the online clustering engine.
type Engine struct {
	store       persistence.Store
	opts        Options
	tokenizer   *tokenizer.ClusterTokenizer
	vectorizer  *tfidf.Vectorizer
	root        *Tree
	initialized bool
	logger      logrus.FieldLogger
	now         func() time.Time
}

// New creates an engine persisting through store. Zero-valued options fall back to defaults.
func New(store persistence.Store, opts Options, logger logrus.FieldLogger) *Engine {
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if opts.MaxClusterSize <= 0 {
		opts.MaxClusterSize = DefaultMaxClusterSize
	}
	if opts.MinClusterSize <= 0 {
		opts.MinClusterSize = DefaultMinClusterSize
	}
	if !opts.Weighting.Valid() {
		opts.Weighting = tfidf.WeightingStandard
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Engine{
		store:      store,
		opts:       opts,
		tokenizer:  tokenizer.NewClusterTokenizer(opts.Stemming),
		vectorizer: tfidf.NewVectorizer(opts.Weighting),
		root:       newTree(),
		logger:     logger.WithField("component", "clustering"),
		now:        time.Now,
	}
}

var _ services.Organizer = (*Engine)(nil)

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Initialize restores the persisted cluster tree and vectorizer state. Missing,
// partial or undecodable state leaves the engine empty and is only logged.
// Calling it again after a successful first call does nothing.
func (e *Engine) Initialize(ctx context.Context) error {
	if e.initialized {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tree, state, err := e.loadState(ctx)
	switch {
	case err != nil:
		e.logger.WithError(err).Warn("failed to restore clustering state, starting empty")
	case tree == nil:
		e.logger.Debug("no persisted clustering state, starting empty")
	default:
		if restoreErr := e.vectorizer.Restore(*state); restoreErr != nil {
			e.logger.WithError(restoreErr).Warn("failed to restore clustering state, starting empty")
			e.vectorizer.Reset()
			break
		}
		e.root = tree
		e.logger.WithFields(logrus.Fields{
			"clusters":  len(e.root.Children),
			"documents": e.vectorizer.DocumentCount(),
		}).Info("loaded existing clustering state")
	}

	e.initialized = true
	return nil
}

// loadState returns nil, nil, nil when neither key exists.
func (e *Engine) loadState(ctx context.Context) (*Tree, *tfidf.State, error) {
	treeData, treeFound, err := e.store.Get(ctx, persistence.KeyClusterTree)
	if err != nil {
		return nil, nil, errors.NewPersistenceError("get", persistence.KeyClusterTree, err)
	}
	stateData, stateFound, err := e.store.Get(ctx, persistence.KeyTFIDF)
	if err != nil {
		return nil, nil, errors.NewPersistenceError("get", persistence.KeyTFIDF, err)
	}

	if !treeFound && !stateFound {
		return nil, nil, nil
	}
	if !treeFound {
		return nil, nil, errors.NewStateCorruptError(persistence.KeyClusterTree, "missing while vectorizer state exists")
	}
	if !stateFound {
		return nil, nil, errors.NewStateCorruptError(persistence.KeyTFIDF, "missing while cluster tree exists")
	}

	var tree Tree
	if err := json.Unmarshal(treeData, &tree); err != nil {
		return nil, nil, errors.NewStateCorruptError(persistence.KeyClusterTree, err.Error())
	}
	var state tfidf.State
	if err := json.Unmarshal(stateData, &state); err != nil {
		return nil, nil, errors.NewStateCorruptError(persistence.KeyTFIDF, err.Error())
	}

	if tree.ID == "" {
		tree.ID = rootID
	}
	if tree.Label == "" {
		tree.Label = rootLabel
	}
	children := make([]*Cluster, 0, len(tree.Children))
	for _, c := range tree.Children {
		if c == nil {
			continue
		}
		if c.Centroid == nil {
			c.recomputeCentroid()
		}
		children = append(children, c)
	}
	tree.Children = children

	return &tree, &state, nil
}

// persist writes the tree first, then the vectorizer state.
func (e *Engine) persist(ctx context.Context) error {
	treeData, err := json.Marshal(e.root)
	if err != nil {
		return errors.NewPersistenceError("set", persistence.KeyClusterTree, err)
	}
	stateData, err := json.Marshal(e.vectorizer.State())
	if err != nil {
		return errors.NewPersistenceError("set", persistence.KeyTFIDF, err)
	}

	if err := e.store.Set(ctx, persistence.KeyClusterTree, treeData); err != nil {
		return errors.NewPersistenceError("set", persistence.KeyClusterTree, err)
	}
	if err := e.store.Set(ctx, persistence.KeyTFIDF, stateData); err != nil {
		return errors.NewPersistenceError("set", persistence.KeyTFIDF, err)
	}
	return nil
}

// AddBookmark clusters b and returns where it went. A bookmark without usable
// text yields a nil assignment and no error. A persistence failure is returned
// after the in-memory state has already changed.
func (e *Engine) AddBookmark(ctx context.Context, b *model.Bookmark) (*model.Assignment, error) {
	if !e.initialized {
		if err := e.Initialize(ctx); err != nil {
			return nil, err
		}
	}
	if b == nil {
		return nil, nil
	}

	tokens := e.tokenizer.Tokenize(document.ClusterText(b))
	if len(tokens) == 0 {
		e.logger.WithField("url", b.URL).Warn("no text content found, bookmark not clustered")
		return nil, nil
	}

	docIndex := e.vectorizer.AddTokens(tokens)
	vec, err := e.vectorizer.Vector(docIndex)
	if err != nil {
		return nil, err
	}
	if vec.Len() == 0 {
		e.logger.WithField("url", b.URL).Warn("empty vector generated, bookmark not clustered")
		return nil, nil
	}

	assignment := e.assign(b, vec)

	if err := e.persist(ctx); err != nil {
		e.logger.WithError(err).WithField("cluster_id", assignment.ClusterID).Error("failed to persist clustering state")
		return nil, err
	}
	return assignment, nil
}

// assign places vec into the best cluster or a new one and returns the assignment.
func (e *Engine) assign(b *model.Bookmark, vec vector.Sparse) *model.Assignment {
	member := Member{ID: b.ID, URL: b.URL, Vector: vec}

	if len(e.root.Children) == 0 {
		cluster := e.createCluster(b, member)
		e.logger.WithFields(logrus.Fields{
			"cluster_id": cluster.ID,
			"label":      cluster.Label,
		}).Info("cold start: created first cluster")
		return &model.Assignment{ClusterID: cluster.ID, Label: cluster.Label, Similarity: 0, IsNewCluster: true}
	}

	best, similarity := e.findBestCluster(vec)
	if best != nil && similarity >= e.opts.SimilarityThreshold {
		e.addToCluster(best, member)
		e.logger.WithFields(logrus.Fields{
			"cluster_id": best.ID,
			"similarity": similarity,
			"members":    len(best.Members),
		}).Debug("assigned bookmark to existing cluster")
		return &model.Assignment{ClusterID: best.ID, Label: best.Label, Similarity: similarity, IsNewCluster: false}
	}

	cluster := e.createCluster(b, member)
	e.logger.WithFields(logrus.Fields{
		"cluster_id": cluster.ID,
		"label":      cluster.Label,
		"similarity": similarity,
	}).Debug("similarity below threshold, created new cluster")
	return &model.Assignment{ClusterID: cluster.ID, Label: cluster.Label, Similarity: similarity, IsNewCluster: true}
}

// findBestCluster returns the first cluster with the highest positive similarity.
func (e *Engine) findBestCluster(vec vector.Sparse) (*Cluster, float64) {
	var best *Cluster
	bestSimilarity := 0.0
	for _, c := range e.root.Children {
		if c.Centroid.Len() == 0 {
			continue
		}
		similarity := vector.CosineSimilarity(vec, c.Centroid)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = c
		}
	}
	return best, bestSimilarity
}

func (e *Engine) createCluster(b *model.Bookmark, member Member) *Cluster {
	now := e.now()
	cluster := &Cluster{
		ID:        newClusterID(now),
		Label:     generateLabel(b, now),
		Centroid:  member.Vector.Clone(),
		Members:   []Member{member},
		CreatedAt: now.UTC(),
	}
	e.root.Children = append(e.root.Children, cluster)
	return cluster
}

func (e *Engine) addToCluster(c *Cluster, member Member) {
	c.Members = append(c.Members, member)
	c.recomputeCentroid()

	if len(c.Members) > e.opts.MaxClusterSize {
		if !c.OverCapacity {
			e.logger.WithFields(logrus.Fields{
				"cluster_id": c.ID,
				"members":    len(c.Members),
				"max":        e.opts.MaxClusterSize,
			}).Warn("cluster exceeded maximum size, splitting is not implemented")
		}
		c.OverCapacity = true
	}
}

// Stats summarizes the current state.
func (e *Engine) Stats() services.ClusterStats {
	stats := services.ClusterStats{
		ClusterCount:   len(e.root.Children),
		VocabularySize: e.vectorizer.VocabularySize(),
		Threshold:      e.opts.SimilarityThreshold,
		OverCapacity:   []string{},
	}
	for _, c := range e.root.Children {
		stats.TotalMembers += len(c.Members)
		if c.OverCapacity {
			stats.OverCapacity = append(stats.OverCapacity, c.ID)
		}
	}
	return stats
}

// Clusters returns a read-only view of every cluster in creation order.
func (e *Engine) Clusters() []services.ClusterSummary {
	summaries := make([]services.ClusterSummary, len(e.root.Children))
	for i, c := range e.root.Children {
		summaries[i] = c.summary()
	}
	return summaries
}

// Cluster returns a deep copy of the cluster with id.
func (e *Engine) Cluster(id string) (*Cluster, bool) {
	for _, c := range e.root.Children {
		if c.ID != id {
			continue
		}
		members := make([]Member, len(c.Members))
		for i, m := range c.Members {
			members[i] = Member{ID: m.ID, URL: m.URL, Vector: m.Vector.Clone()}
		}
		cp := *c
		cp.Centroid = c.Centroid.Clone()
		cp.Members = members
		return &cp, true
	}
	return nil, false
}

// Reset forgets every cluster and all term statistics, then persists the empty state.
func (e *Engine) Reset(ctx context.Context) error {
	e.root = newTree()
	e.vectorizer.Reset()
	e.initialized = true

	if err := e.persist(ctx); err != nil {
		return err
	}
	e.logger.Info("clustering state reset")
	return nil
}
