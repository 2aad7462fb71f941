package commentanalyzer

import (
	"context"
	"fmt"
	"time"

	"comment-insights/agents/comment-analyzer/youtube"
	"comment-insights/internal/models"
	"comment-insights/shared/config"
	"comment-insights/shared/monitoring"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// VideoSource is the read side of the YouTube Data API.
type VideoSource interface {
	VideoMetadata(ctx context.Context, videoID string) (*models.VideoMetadata, error)
	Comments(ctx context.Context, videoID string) []models.Comment
}

type CommentAnalyzer interface {
	AnalyzeComments(ctx context.Context, video *models.VideoMetadata, sampled []models.Comment, total int) (*models.AnalysisResult, error)
}

// Pipeline turns a video URL into a Report. It holds no per-request state
// and is safe for concurrent use.
type Pipeline struct {
	source   VideoSource
	analyzer CommentAnalyzer
	sampling config.SamplingConfig
	monitor  *monitoring.Monitor
}

func NewPipeline(source VideoSource, analyzer CommentAnalyzer, sampling config.SamplingConfig, monitor *monitoring.Monitor) *Pipeline {
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}
	return &Pipeline{
		source:   source,
		analyzer: analyzer,
		sampling: sampling,
		monitor:  monitor,
	}
}

// Analyze fetches metadata and comments concurrently, exports every comment
// to CSV and analyzes a sample of them. A failed analysis still yields a
// report, with Analysis nil and AnalysisError set. Errors returned here are
// fatal for the request and classify with models.KindOf.
func (p *Pipeline) Analyze(ctx context.Context, videoURL string) (*models.Report, error) {
	start := time.Now()
	requestID := uuid.NewString()
	log := logrus.WithField("request_id", requestID)

	report, err := p.analyze(ctx, log, requestID, videoURL)

	fetched, analyzed := 0, 0
	outcome := "success"
	switch {
	case err != nil:
		outcome = string(models.KindOf(err))
		log.WithError(err).Warnf("Analysis request failed for %q", videoURL)
	case report.Analysis == nil:
		outcome = "partial"
	}
	if report != nil {
		fetched, analyzed = report.TotalCount, report.AnalyzedCount
	}
	p.monitor.RecordAnalysis(outcome, fetched, analyzed, time.Since(start))

	return report, err
}

func (p *Pipeline) analyze(ctx context.Context, log *logrus.Entry, requestID, videoURL string) (*models.Report, error) {
	videoID, err := youtube.ExtractVideoID(videoURL)
	if err != nil {
		return nil, err
	}
	log = log.WithField("video_id", videoID)

	var (
		video    *models.VideoMetadata
		comments []models.Comment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := p.source.VideoMetadata(gctx, videoID)
		if err != nil {
			return err
		}
		video = v
		return nil
	})
	g.Go(func() error {
		comments = p.source.Comments(gctx, videoID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to get video details: %w", err)
	}

	if len(comments) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, models.ErrNoComments)
	}
	log.WithField("comments", len(comments)).Info("Fetched comments")

	csvContent, err := ExportCSV(comments)
	if err != nil {
		return nil, err
	}

	sampled := Sample(comments, p.sampling)
	if len(sampled) < len(comments) {
		log.Infof("Sampled %d of %d comments for analysis", len(sampled), len(comments))
	}

	report := &models.Report{
		Success:       true,
		RequestID:     requestID,
		VideoID:       videoID,
		Video:         video,
		Comments:      comments,
		CSVContent:    string(csvContent),
		AnalyzedCount: len(sampled),
		TotalCount:    len(comments),
		GeneratedAt:   time.Now().UTC(),
	}

	analysis, err := p.analyzer.AnalyzeComments(ctx, video, sampled, len(comments))
	if err != nil {
		log.WithField("kind", models.KindOf(err)).Warnf("Comment analysis failed: %v", err)
		report.AnalysisError = err.Error()
		return report, nil
	}

	report.Analysis = analysis
	report.SentimentData = analysis.Sentiment.Slices()
	return report, nil
}

// Export renders comments as CSV, independent of any analysis.
func (p *Pipeline) Export(comments []models.Comment) ([]byte, error) {
	return ExportCSV(comments)
}
