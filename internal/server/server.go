package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pricecatalog/internal"
	"pricecatalog/internal/catalog"
	"pricecatalog/internal/config"
)

// Server exposes the catalog query contract over HTTP.
type Server struct {
	router      *gin.Engine
	catalog     *catalog.Service
	searchLimit int
	reloads     *throttle
	logger      *slog.Logger
}

type Options struct {
	// SearchLimit applies when a search request carries no limit.
	SearchLimit int
	// ReloadInterval is the minimum spacing between HTTP-triggered reloads.
	ReloadInterval time.Duration
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		SearchLimit:    cfg.SearchDefaultLimit,
		ReloadInterval: time.Duration(cfg.ReloadMinIntervalSec) * time.Second,
	}
}

func New(svc *catalog.Service, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 20
	}
	s := &Server{
		router:      gin.New(),
		catalog:     svc,
		searchLimit: opts.SearchLimit,
		reloads:     newThrottle(opts.ReloadInterval),
		logger:      logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), s.requestLog())
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		api.GET("/pricelist", s.listAll)
		api.GET("/pricelist/search", s.search)
		api.GET("/pricelist/:em", s.lookup("em"))
		api.GET("/materials/:articleNumber", s.lookup("articleNumber"))
		api.POST("/materials/reload", s.reload)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("http server listening", slog.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) lookup(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, ok := s.catalog.Lookup(c.Param(param))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func (s *Server) search(c *gin.Context) {
	limit := s.searchLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, s.catalog.Search(c.Query("prefix"), limit))
}

func (s *Server) listAll(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog.ListAll())
}

type reloadResponse struct {
	Message string                `json:"message"`
	TraceID string                `json:"traceId"`
	Items   int                   `json:"items"`
	Sheets  []internal.SheetStats `json:"sheets"`
}

func (s *Server) reload(c *gin.Context) {
	if ok, wait := s.reloads.Allow(time.Now()); !ok {
		c.Header("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "reload requested too soon"})
		return
	}
	res, err := s.catalog.Reload(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "could not load price list: " + err.Error(),
			"traceId": res.TraceID,
		})
		return
	}
	c.JSON(http.StatusOK, reloadResponse{
		Message: "price list reloaded",
		TraceID: res.TraceID,
		Items:   res.Items,
		Sheets:  res.Report.Sheets,
	})
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)),
		)
	}
}
