package commentanalyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"comment-insights/internal/models"
	"comment-insights/shared/monitoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	video       *models.VideoMetadata
	metadataErr error
	comments    []models.Comment

	mu  sync.Mutex
	ids []string
}

func (f *fakeSource) VideoMetadata(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	f.mu.Lock()
	f.ids = append(f.ids, videoID)
	f.mu.Unlock()
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	return f.video, nil
}

func (f *fakeSource) Comments(ctx context.Context, videoID string) []models.Comment {
	return f.comments
}

type fakeAnalyzer struct {
	result  *models.AnalysisResult
	err     error
	sampled []models.Comment
	total   int
	calls   int
}

func (f *fakeAnalyzer) AnalyzeComments(ctx context.Context, video *models.VideoMetadata, sampled []models.Comment, total int) (*models.AnalysisResult, error) {
	f.calls++
	f.sampled = sampled
	f.total = total
	return f.result, f.err
}

func testVideo() *models.VideoMetadata {
	return &models.VideoMetadata{ID: "dQw4w9WgXcQ", Title: "Test Video", Channel: "Test Channel"}
}

func testAnalysis() *models.AnalysisResult {
	return &models.AnalysisResult{
		Sentiment: models.Sentiment{Positive: 70, Neutral: 20, Negative: 10},
		Themes:    models.StringList{"Editing", "Music", "Pacing", "Humor", "Audio"},
	}
}

const testURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestAnalyzeEndToEnd(t *testing.T) {
	source := &fakeSource{video: testVideo(), comments: makeComments(3)}
	analyzer := &fakeAnalyzer{result: testAnalysis()}
	monitor := monitoring.NewMonitor()
	p := NewPipeline(source, analyzer, defaultSampling, monitor)

	report, err := p.Analyze(context.Background(), testURL)
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.NotEmpty(t, report.RequestID)
	assert.Equal(t, "dQw4w9WgXcQ", report.VideoID)
	assert.Equal(t, []string{"dQw4w9WgXcQ"}, source.ids)
	assert.Equal(t, "Test Video", report.Video.Title)

	// small threads are analyzed unsampled
	assert.Len(t, report.Comments, 3)
	assert.Equal(t, source.comments, analyzer.sampled)
	assert.Equal(t, 3, analyzer.total)
	assert.Equal(t, 3, report.AnalyzedCount)
	assert.Equal(t, 3, report.TotalCount)

	assert.Equal(t, 4, strings.Count(report.CSVContent, "\n"))
	require.NotNil(t, report.Analysis)
	assert.NotEmpty(t, report.Analysis.Themes)
	assert.Empty(t, report.AnalysisError)
	assert.Equal(t, []models.SentimentSlice{
		{Name: "Positive", Value: 70},
		{Name: "Neutral", Value: 20},
		{Name: "Negative", Value: 10},
	}, report.SentimentData)

	assert.Equal(t, float64(1), monitorCounter(t, monitor, "success"))
}

func monitorCounter(t *testing.T, m *monitoring.Monitor, outcome string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "comment_analyses_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestAnalyzeSamplesLargeThreads(t *testing.T) {
	source := &fakeSource{video: testVideo(), comments: makeComments(1200)}
	analyzer := &fakeAnalyzer{result: testAnalysis()}
	p := NewPipeline(source, analyzer, defaultSampling, nil)

	report, err := p.Analyze(context.Background(), testURL)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(analyzer.sampled), 550)
	assert.Equal(t, 1200, analyzer.total)
	assert.Equal(t, len(analyzer.sampled), report.AnalyzedCount)

	// export always covers the full set
	assert.Len(t, report.Comments, 1200)
	assert.Equal(t, 1201, strings.Count(report.CSVContent, "\n"))
}

func TestAnalyzeFatalErrors(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		source   *fakeSource
		wantErr  error
		wantKind models.ErrorKind
	}{
		{
			name:     "Invalid URL",
			url:      "https://example.com/watch?list=abc",
			source:   &fakeSource{video: testVideo(), comments: makeComments(3)},
			wantErr:  models.ErrInvalidIdentifier,
			wantKind: models.KindInvalidIdentifier,
		},
		{
			name:     "Video not found",
			url:      testURL,
			source:   &fakeSource{metadataErr: fmt.Errorf("video x: %w", models.ErrNotFound), comments: makeComments(3)},
			wantErr:  models.ErrNotFound,
			wantKind: models.KindNotFound,
		},
		{
			name:     "Not found wins over empty comments",
			url:      testURL,
			source:   &fakeSource{metadataErr: models.ErrNotFound},
			wantErr:  models.ErrNotFound,
			wantKind: models.KindNotFound,
		},
		{
			name:     "Metadata upstream failure",
			url:      testURL,
			source:   &fakeSource{metadataErr: fmt.Errorf("%w: quota", models.ErrUpstreamUnavailable), comments: makeComments(3)},
			wantErr:  models.ErrUpstreamUnavailable,
			wantKind: models.KindUpstreamUnavailable,
		},
		{
			name:     "No comments",
			url:      testURL,
			source:   &fakeSource{video: testVideo()},
			wantErr:  models.ErrNoComments,
			wantKind: models.KindNoComments,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &fakeAnalyzer{result: testAnalysis()}
			monitor := monitoring.NewMonitor()
			p := NewPipeline(tt.source, analyzer, defaultSampling, monitor)

			report, err := p.Analyze(context.Background(), tt.url)
			assert.Nil(t, report)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantKind, models.KindOf(err))
			assert.Zero(t, analyzer.calls)
			assert.Equal(t, float64(1), monitorCounter(t, monitor, string(tt.wantKind)))
		})
	}
}

func TestAnalyzePartialSuccess(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind models.ErrorKind
	}{
		{"Unparseable response", &models.ParseError{Raw: "nope", Err: errors.New("not json")}, models.KindAnalysisParse},
		{"Upstream timeout", fmt.Errorf("%w: deadline", models.ErrUpstreamTimeout), models.KindUpstreamTimeout},
		{"Upstream unavailable", fmt.Errorf("%w: 503", models.ErrUpstreamUnavailable), models.KindUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{video: testVideo(), comments: makeComments(3)}
			monitor := monitoring.NewMonitor()
			p := NewPipeline(source, &fakeAnalyzer{err: tt.err}, defaultSampling, monitor)

			report, err := p.Analyze(context.Background(), testURL)
			require.NoError(t, err)

			assert.True(t, report.Success)
			assert.Nil(t, report.Analysis)
			assert.Nil(t, report.SentimentData)
			assert.Equal(t, tt.err.Error(), report.AnalysisError)
			assert.Len(t, report.Comments, 3)
			assert.NotEmpty(t, report.CSVContent)
			assert.Equal(t, float64(1), monitorCounter(t, monitor, "partial"))
		})
	}
}

func TestPipelineExport(t *testing.T) {
	p := NewPipeline(&fakeSource{}, &fakeAnalyzer{}, defaultSampling, nil)
	data, err := p.Export(makeComments(2))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "comment_id,author,text,likes,published_at\n"))
	assert.Equal(t, 3, strings.Count(string(data), "\n"))
}
