package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListClustersHandler returns a snapshot of every cluster.
func (api *API) ListClustersHandler(c *gin.Context) {
	clusters := api.library.Clusters()
	c.JSON(http.StatusOK, gin.H{
		"clusters": clusters,
		"total":    len(clusters),
	})
}

// ClusterStatsHandler returns the clustering summary.
func (api *API) ClusterStatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.library.ClusterStats())
}

// ResetClustersHandler discards all clusters and moves their bookmarks to the root.
func (api *API) ResetClustersHandler(c *gin.Context) {
	if err := api.library.ResetClustering(c.Request.Context()); err != nil {
		SendLibraryError(c, "clustering reset", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Clustering reset"})
}
