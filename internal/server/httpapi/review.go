package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/kabyedict/internal/common"
	"github.com/dmitrijs2005/kabyedict/internal/server/models"
	"github.com/dmitrijs2005/kabyedict/internal/server/services"
)

// validateRequest is a reviewer decision. Changes uses the same keys as an
// entry submission.
type validateRequest struct {
	Reviewer string       `json:"reviewer"`
	Status   string       `json:"status"`
	Notes    string       `json:"notes"`
	Changes  entryRequest `json:"changes"`
}

func (s *HTTPServer) listReviewers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reviewers": s.validation.Reviewers()})
}

func (s *HTTPServer) reviewQueue(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if firstQuery(c, "scope", "champ") == "" {
		f.Scope = ""
	}

	reviewer := firstQuery(c, "reviewer", "validateur")
	result, err := s.validation.Queue(c.Request.Context(), reviewer, f)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": nonNil(result), "total": len(result), "reviewer": reviewer})
}

func (s *HTTPServer) validateEntry(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}

	var status models.Status
	if req.Status != "" {
		st, ok := models.ParseStatus(req.Status)
		if !ok {
			s.writeError(c, fmt.Errorf("%w: unknown status %q", common.ErrorValidation, req.Status))
			return
		}
		status = st
	}

	e, err := s.validation.Validate(c.Request.Context(), id, services.ValidateRequest{
		Reviewer:  req.Reviewer,
		Status:    status,
		Notes:     req.Notes,
		Overrides: req.Changes.fields(),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "entry": e})
}

func (s *HTTPServer) reviewSummary(c *gin.Context) {
	sum, err := s.validation.Summary(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
