// Package httpapi is the HTTP route layer of the dictionary. It renders
// entries as JSON, accepts JSON or multipart submissions and maps every
// error kind to a distinct status code.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/kabyedict/internal/logging"
	"github.com/dmitrijs2005/kabyedict/internal/server/models"
	"github.com/dmitrijs2005/kabyedict/internal/server/query"
	"github.com/dmitrijs2005/kabyedict/internal/server/reviewers"
	"github.com/dmitrijs2005/kabyedict/internal/server/services"
	"github.com/dmitrijs2005/kabyedict/internal/server/stats"
)

// EntryService is the entry lifecycle used by the handlers.
type EntryService interface {
	Create(ctx context.Context, fields models.EntryFields, img *services.Image) (*models.Entry, error)
	Update(ctx context.Context, id int64, fields models.EntryFields, img *services.Image, removeImage bool) (*models.Entry, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Entry, error)
	List(ctx context.Context, f query.Filter) ([]*models.Entry, error)
	Count(ctx context.Context) (int64, error)
}

// ValidationService is the review workflow used by the handlers.
type ValidationService interface {
	Validate(ctx context.Context, id int64, req services.ValidateRequest) (*models.Entry, error)
	Queue(ctx context.Context, reviewer string, f query.Filter) ([]*models.Entry, error)
	Summary(ctx context.Context) (stats.StatusSummary, error)
	Reviewers() []reviewers.Reviewer
}

// StatisticsService computes contributor statistics.
type StatisticsService interface {
	Report(ctx context.Context) (stats.Report, error)
}

// Options holds the presentation settings of the server.
type Options struct {
	CORSOrigins []string
	Maintenance Maintenance
	// MaxImageSize bounds write request bodies together with the form
	// fields.
	MaxImageSize int64
}

const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	address    string
	entries    EntryService
	validation ValidationService
	statistics StatisticsService
	opts       Options
	logger     logging.Logger
	now        func() time.Time
}

func NewHTTPServer(a string, l logging.Logger, es EntryService, vs ValidationService, ss StatisticsService, opts Options) *HTTPServer {
	if l == nil {
		l = logging.Nop()
	}
	return &HTTPServer{
		address:    a,
		logger:     l.With("module", "http_server"),
		entries:    es,
		validation: vs,
		statistics: ss,
		opts:       opts,
		now:        time.Now,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler builds the gin engine with every route registered.
func (s *HTTPServer) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), cors.New(corsConfig(s.opts.CORSOrigins)))

	r.GET("/health", s.health)

	api := r.Group("/api")
	api.GET("/maintenance", s.maintenance)
	api.GET("/alphabet", s.alphabet)
	api.GET("/stats", s.report)

	api.GET("/entries", s.listEntries)
	api.GET("/entries/:id", s.getEntry)

	// Body limits and markup checks apply to write routes only.
	write := api.Group("/")
	write.Use(s.limitBody(), s.rejectMarkupJSON())
	write.POST("/entries", s.createEntry)
	write.PUT("/entries/:id", s.updateEntry)
	write.DELETE("/entries/:id", s.deleteEntry)

	review := api.Group("/review")
	review.GET("/reviewers", s.listReviewers)
	review.GET("/entries", s.reviewQueue)
	review.GET("/summary", s.reviewSummary)
	review.POST("/entries/:id", s.limitBody(), s.rejectMarkupJSON(), s.validateEntry)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
