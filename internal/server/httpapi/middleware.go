package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"

	"github.com/dmitrijs2005/kabyedict/internal/common"
)

var policy = bluemonday.StrictPolicy()

// checkMarkup refuses text the strict policy would alter. Submitted text is
// stored exactly as sent or not at all.
func checkMarkup(field, s string) error {
	if html.UnescapeString(policy.Sanitize(s)) != s {
		return fmt.Errorf("%w: field %q contains markup", common.ErrorValidation, field)
	}
	return nil
}

// findMarkup walks a decoded JSON value and reports the first string, in
// key order, that checkMarkup refuses.
func findMarkup(path string, v any) error {
	switch value := v.(type) {
	case string:
		return checkMarkup(path, value)
	case []any:
		for i, item := range value {
			if err := findMarkup(fmt.Sprintf("%s[%d]", path, i), item); err != nil {
				return err
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(value))
		for k := range value {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			name := k
			if path != "" {
				name = path + "." + k
			}
			if err := findMarkup(name, value[k]); err != nil {
				return err
			}
		}
	}
	return nil
}

// limitBody caps write request bodies at the largest accepted image plus
// the form fields.
func (s *HTTPServer) limitBody() gin.HandlerFunc {
	limit := s.opts.MaxImageSize + maxFormMemory
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "Requête trop volumineuse"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// rejectMarkupJSON checks every string in a JSON request body, at any
// depth. Other content types pass through; multipart fields are checked by
// the form reader.
func (s *HTTPServer) rejectMarkupJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}
		if !strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
			c.Next()
			return
		}

		buf, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "Requête trop volumineuse"})
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid body"})
			return
		}

		var body any
		if err := json.Unmarshal(buf, &body); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "Malformed JSON"})
			return
		}
		if err := findMarkup("", body); err != nil {
			s.writeError(c, err)
			c.Abort()
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(buf))
		c.Next()
	}
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
