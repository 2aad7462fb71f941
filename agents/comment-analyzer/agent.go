package commentanalyzer

import (
	"context"
	"fmt"
	"time"

	"comment-insights/agents/comment-analyzer/youtube"
	"comment-insights/internal/models"
	"comment-insights/shared/config"
	"comment-insights/shared/email"
	"comment-insights/shared/scheduler"

	"github.com/sirupsen/logrus"
)

type DigestSender interface {
	SendDigest(digest *models.Digest) error
}

// WatchMetrics summarizes one watch run.
type WatchMetrics struct {
	Videos         int
	Analyzed       int
	AnalysisErrors int
	Failed         int
}

func (m WatchMetrics) GetSummary() string {
	return fmt.Sprintf("watched %d videos, analyzed %d, %d without analysis, %d failed",
		m.Videos, m.Analyzed, m.AnalysisErrors, m.Failed)
}

// WatchAgent analyzes the configured videos on a schedule and mails a digest.
// It implements scheduler.Agent.
type WatchAgent struct {
	config   *config.Config
	pipeline *Pipeline
	sender   DigestSender
}

func NewWatchAgent(cfg *config.Config, pipeline *Pipeline, sender DigestSender) *WatchAgent {
	return &WatchAgent{
		config:   cfg,
		pipeline: pipeline,
		sender:   sender,
	}
}

func (w *WatchAgent) Name() string {
	return "Comment Watch"
}

func (w *WatchAgent) Initialize() error {
	logrus.Infof("Initializing %s...", w.Name())

	if w.pipeline == nil {
		return fmt.Errorf("pipeline is required")
	}
	if len(w.config.Watch.Videos) == 0 {
		return fmt.Errorf("no videos configured in watch.videos")
	}
	for _, url := range w.config.Watch.Videos {
		if _, err := youtube.ExtractVideoID(url); err != nil {
			return fmt.Errorf("watch video %q: %w", url, err)
		}
	}
	if w.sender == nil {
		w.sender = email.NewSender(&w.config.Email)
		logrus.Info("Email sender initialized")
	}
	return nil
}

func (w *WatchAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	videos := w.config.Watch.Videos

	digest := &models.Digest{Date: time.Now()}
	metrics := WatchMetrics{Videos: len(videos)}

	for i, url := range videos {
		if err := ctx.Err(); err != nil {
			return err
		}

		logrus.Infof("Analyzing watched video %d/%d: %s", i+1, len(videos), url)
		report, err := w.pipeline.Analyze(ctx, url)
		if err != nil {
			metrics.Failed++
			digest.Failures = append(digest.Failures, models.DigestFailure{
				URL:   url,
				Kind:  models.KindOf(err),
				Error: err.Error(),
			})
			continue
		}

		if report.Analysis == nil {
			metrics.AnalysisErrors++
		} else {
			metrics.Analyzed++
		}
		digest.Reports = append(digest.Reports, report)
	}

	if metrics.Failed == len(videos) {
		return fmt.Errorf("all %d watched videos failed", len(videos))
	}

	if err := w.sender.SendDigest(digest); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}
	logrus.Infof("Digest sent with %d reports", len(digest.Reports))

	duration := time.Since(startTime)
	if events != nil {
		if metrics.Failed > 0 && events.OnPartialFailure != nil {
			events.OnPartialFailure(fmt.Errorf("%d of %d watched videos failed", metrics.Failed, len(videos)), duration)
		}
		if events.OnSuccess != nil {
			events.OnSuccess(metrics, duration)
		}
	}

	return nil
}
