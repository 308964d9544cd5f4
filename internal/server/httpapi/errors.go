package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/kabyedict/internal/common"
)

// errorKinds maps each error kind to its status and user message.
var errorKinds = []struct {
	err     error
	status  int
	message string
}{
	{common.ErrorValidation, http.StatusBadRequest, "Données invalides"},
	{common.ErrorDuplicate, http.StatusConflict, "Ce mot existe déjà dans le dictionnaire"},
	{common.ErrorNotFound, http.StatusNotFound, "Mot non trouvé"},
	{common.ErrorUnauthorized, http.StatusForbidden, "Validateur non autorisé"},
	{common.ErrorStorage, http.StatusBadGateway, "Erreur lors du traitement de l'image"},
}

const internalMessage = "Erreur interne du serveur"

func classify(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, k.message
		}
	}
	return http.StatusInternalServerError, internalMessage
}

func (s *HTTPServer) writeError(c *gin.Context, err error) {
	status, message := classify(err)

	body := gin.H{"success": false, "error": message}
	if status == http.StatusBadRequest {
		body["detail"] = err.Error()
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}

	c.JSON(status, body)
}
