package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/kabyedict/internal/common"
	"github.com/dmitrijs2005/kabyedict/internal/server/models"
	"github.com/dmitrijs2005/kabyedict/internal/server/query"
)

// parseFilter reads the list parameters. The French parameter names of the
// original web pages are accepted as well.
func parseFilter(c *gin.Context) (query.Filter, error) {
	f := query.Filter{
		Search: firstQuery(c, "search", "q"),
	}

	if letter := firstQuery(c, "letter", "initiale", "lettre"); strings.TrimSpace(letter) != "" {
		l, ok := query.LookupLetter(letter)
		if !ok {
			return query.Filter{}, fmt.Errorf("%w: unknown letter %q", common.ErrorValidation, letter)
		}
		f.Letter = l
	}

	scope, ok := query.ParseScope(firstQuery(c, "scope", "champ"))
	if !ok {
		return query.Filter{}, fmt.Errorf("%w: unknown search scope", common.ErrorValidation)
	}
	f.Scope = scope

	switch status := firstQuery(c, "status", "statut"); status {
	case "", "all", "tous":
	default:
		st, ok := models.ParseStatus(status)
		if !ok {
			return query.Filter{}, fmt.Errorf("%w: unknown status %q", common.ErrorValidation, status)
		}
		f.Status = st
	}

	if firstQuery(c, "order") == "alphabetical" {
		f.Order = query.OrderAlphabetical
	}
	return f, nil
}

func (s *HTTPServer) listEntries(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	result, err := s.entries.List(c.Request.Context(), f)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": nonNil(result), "total": len(result)})
}

func (s *HTTPServer) getEntry(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	e, err := s.entries.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, e)
}

func (s *HTTPServer) createEntry(c *gin.Context) {
	in, err := readEntryInput(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	e, err := s.entries.Create(c.Request.Context(), in.fields, in.image)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "entry": e})
}

func (s *HTTPServer) updateEntry(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	in, err := readEntryInput(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	e, err := s.entries.Update(c.Request.Context(), id, in.fields, in.image, in.removeImage)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "entry": e})
}

func (s *HTTPServer) deleteEntry(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if err := s.entries.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func nonNil(entries []*models.Entry) []*models.Entry {
	if entries == nil {
		return []*models.Entry{}
	}
	return entries
}
