package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"comment-insights/internal/models"
	"comment-insights/shared/config"
	"comment-insights/shared/monitoring"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Analyzer is the pipeline behind the HTTP routes.
type Analyzer interface {
	Analyze(ctx context.Context, videoURL string) (*models.Report, error)
	Export(comments []models.Comment) ([]byte, error)
}

type Server struct {
	config   *config.ServerConfig
	analyzer Analyzer
	monitor  *monitoring.Monitor
	router   *gin.Engine
}

type analyzeRequest struct {
	VideoURL string `json:"videoUrl"`
}

type exportRequest struct {
	VideoID  string           `json:"videoId"`
	Comments []models.Comment `json:"comments" binding:"required"`
}

type downloadRequest struct {
	VideoID    string `json:"videoId"`
	CSVContent string `json:"csvContent"`
}

type errorResponse struct {
	Error string           `json:"error"`
	Kind  models.ErrorKind `json:"kind,omitempty"`
}

func New(cfg *config.ServerConfig, analyzer Analyzer, monitor *monitoring.Monitor) *Server {
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}

	s := &Server{
		config:   cfg,
		analyzer: analyzer,
		monitor:  monitor,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.monitor.Middleware())

	corsConfig := cors.DefaultConfig()
	if len(s.config.AllowedOrigins) == 0 || (len(s.config.AllowedOrigins) == 1 && s.config.AllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.config.AllowedOrigins
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	r.Use(cors.New(corsConfig))

	s.monitor.RegisterRoutes(r)
	r.GET("/", s.index)

	api := r.Group("/api")
	{
		api.POST("/analyze", s.analyze)
		api.POST("/export", s.export)
		api.POST("/download-csv", s.downloadCSV)
	}

	return r
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("HTTP server starting on port %s", s.config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	logrus.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func (s *Server) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "comment-insights",
		"endpoints": []string{
			"POST /api/analyze",
			"POST /api/export",
			"POST /api/download-csv",
			"GET /health",
			"GET /status",
			"GET /metrics",
		},
	})
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.VideoURL == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "No video URL provided", Kind: models.KindInvalidIdentifier})
		return
	}

	report, err := s.analyzer.Analyze(c.Request.Context(), req.VideoURL)
	if err != nil {
		kind := models.KindOf(err)
		c.JSON(statusFor(kind), errorResponse{Error: err.Error(), Kind: kind})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) export(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "No comments provided"})
		return
	}

	data, err := s.analyzer.Export(req.Comments)
	if err != nil {
		kind := models.KindOf(err)
		c.JSON(statusFor(kind), errorResponse{Error: err.Error(), Kind: kind})
		return
	}

	s.attachCSV(c, req.VideoID, data)
}

func (s *Server) downloadCSV(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CSVContent == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "No CSV content provided"})
		return
	}

	s.attachCSV(c, req.VideoID, []byte(req.CSVContent))
}

var safeVideoID = regexp.MustCompile(`^[0-9A-Za-z_-]+$`)

func (s *Server) attachCSV(c *gin.Context, videoID string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", csvFilename(videoID, time.Now())))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func csvFilename(videoID string, now time.Time) string {
	if !safeVideoID.MatchString(videoID) {
		videoID = "comments"
	}
	return fmt.Sprintf("youtube_comments_%s_%s.csv", videoID, now.Format("20060102_150405"))
}

func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindInvalidIdentifier:
		return http.StatusBadRequest
	case models.KindNotFound, models.KindNoComments:
		return http.StatusNotFound
	case models.KindUpstreamUnavailable:
		return http.StatusBadGateway
	case models.KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
