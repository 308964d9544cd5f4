package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/kabyedict/internal/server/query"
)

func (s *HTTPServer) health(c *gin.Context) {
	now := s.now().UTC()

	n, err := s.entries.Count(c.Request.Context())
	if err != nil {
		s.logger.Error(c.Request.Context(), "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "timestamp": now})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": now, "total_entries": n})
}

func (s *HTTPServer) maintenance(c *gin.Context) {
	c.JSON(http.StatusOK, s.opts.Maintenance.Info(s.now()))
}

func (s *HTTPServer) alphabet(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"letters": query.Alphabet})
}

func (s *HTTPServer) report(c *gin.Context) {
	r, err := s.statistics.Report(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"by_contributor": r.ByContributor,
		"contributors":   r.Contributors(),
		"global":         r.Global,
	})
}
