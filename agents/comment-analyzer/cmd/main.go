package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	commentanalyzer "comment-insights/agents/comment-analyzer"
	"comment-insights/agents/comment-analyzer/server"
	"comment-insights/agents/comment-analyzer/youtube"
	"comment-insights/shared/ai"
	"comment-insights/shared/config"
	"comment-insights/shared/monitoring"
	"comment-insights/shared/ratelimit"
	"comment-insights/shared/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const youtubeHost = "youtube.googleapis.com"

func main() {
	once := flag.String("once", "", "analyze a single video URL, print the report as JSON and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogging(&cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Hosts other than YouTube are the AI endpoint or OAuth token refreshes.
	limiter := ratelimit.NewHostLimiter(cfg.AI.RequestsPerSecond, 1)
	limiter.SetLimit(youtubeHost, cfg.YouTube.RequestsPerSecond)
	httpClient := limiter.Client()

	ytClient, err := youtube.NewClient(ctx, &cfg.YouTube, httpClient)
	if err != nil {
		logrus.Fatalf("Failed to create YouTube client: %v", err)
	}

	generator, err := ai.NewGenerator(ctx, &cfg.AI, httpClient)
	if err != nil {
		logrus.Fatalf("Failed to create %s generator: %v", cfg.AI.Provider, err)
	}
	analyzer := ai.NewAnalyzer(&cfg.AI, generator)

	monitor := monitoring.NewMonitor()
	pipeline := commentanalyzer.NewPipeline(ytClient, analyzer, cfg.Sampling, monitor)

	if *once != "" {
		report, err := pipeline.Analyze(ctx, *once)
		if err != nil {
			logrus.Fatalf("Analysis failed: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logrus.Fatalf("Failed to write report: %v", err)
		}
		return
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.New(&cfg.Server, pipeline, monitor).Run(gctx)
	})

	if len(cfg.Watch.Videos) > 0 {
		agent := commentanalyzer.NewWatchAgent(cfg, pipeline, nil)
		s := scheduler.New(cfg.Watch.Schedule, agent, monitor)
		g.Go(func() error {
			if err := s.Start(gctx); err != nil && gctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logrus.Fatalf("Service failed: %v", err)
	}
	logrus.Info("Service exited")
}

func setupLogging(cfg *config.LogConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
