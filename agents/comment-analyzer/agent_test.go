package commentanalyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"comment-insights/internal/models"
	"comment-insights/shared/config"
	"comment-insights/shared/monitoring"
	"comment-insights/shared/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	digests []*models.Digest
	err     error
}

func (r *recordingSender) SendDigest(digest *models.Digest) error {
	r.digests = append(r.digests, digest)
	return r.err
}

// routedSource answers per video id.
type routedSource struct {
	comments map[string][]models.Comment
}

func (r *routedSource) VideoMetadata(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	if _, ok := r.comments[videoID]; !ok {
		return nil, models.ErrNotFound
	}
	return &models.VideoMetadata{ID: videoID, Title: "Video " + videoID}, nil
}

func (r *routedSource) Comments(ctx context.Context, videoID string) []models.Comment {
	return r.comments[videoID]
}

func watchConfig(videos ...string) *config.Config {
	return &config.Config{Watch: config.WatchConfig{Videos: videos, Schedule: "0 0 9 * * *"}}
}

func TestWatchAgentName(t *testing.T) {
	agent := NewWatchAgent(watchConfig(), nil, nil)
	assert.Equal(t, "Comment Watch", agent.Name())
}

func TestWatchMetricsGetSummary(t *testing.T) {
	m := WatchMetrics{Videos: 3, Analyzed: 1, AnalysisErrors: 1, Failed: 1}
	assert.Equal(t, "watched 3 videos, analyzed 1, 1 without analysis, 1 failed", m.GetSummary())
}

func TestWatchAgentInitialize(t *testing.T) {
	p := NewPipeline(&routedSource{}, &fakeAnalyzer{}, defaultSampling, nil)

	tests := []struct {
		name    string
		agent   *WatchAgent
		wantErr bool
	}{
		{"No videos", NewWatchAgent(watchConfig(), p, &recordingSender{}), true},
		{"Invalid URL", NewWatchAgent(watchConfig("not a url"), p, &recordingSender{}), true},
		{"No pipeline", NewWatchAgent(watchConfig("https://youtu.be/dQw4w9WgXcQ"), nil, &recordingSender{}), true},
		{"Valid", NewWatchAgent(watchConfig("https://youtu.be/dQw4w9WgXcQ"), p, &recordingSender{}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.agent.Initialize()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWatchAgentRunOnce(t *testing.T) {
	source := &routedSource{comments: map[string][]models.Comment{
		"aaaaaaaaaaa": makeComments(3),
		"bbbbbbbbbbb": makeComments(5),
		"ccccccccccc": nil,
	}}

	t.Run("PartialFailure", func(t *testing.T) {
		p := NewPipeline(source, &fakeAnalyzer{result: testAnalysis()}, defaultSampling, nil)
		sender := &recordingSender{}
		agent := NewWatchAgent(watchConfig(
			"https://youtu.be/aaaaaaaaaaa",
			"https://youtu.be/bbbbbbbbbbb",
			"https://youtu.be/ccccccccccc",
			"https://youtu.be/ddddddddddd",
		), p, sender)

		var success scheduler.Metrics
		var partial error
		events := &scheduler.AgentEvents{
			OnSuccess:        func(m scheduler.Metrics, d time.Duration) { success = m },
			OnPartialFailure: func(err error, d time.Duration) { partial = err },
		}

		require.NoError(t, agent.RunOnce(context.Background(), events))
		require.Len(t, sender.digests, 1)

		digest := sender.digests[0]
		assert.Len(t, digest.Reports, 2)
		require.Len(t, digest.Failures, 2)
		assert.Equal(t, models.KindNoComments, digest.Failures[0].Kind)
		assert.Equal(t, models.KindNotFound, digest.Failures[1].Kind)

		require.NotNil(t, success)
		assert.Equal(t, WatchMetrics{Videos: 4, Analyzed: 2, Failed: 2}, success)
		assert.Error(t, partial)
	})

	t.Run("AllFailed", func(t *testing.T) {
		p := NewPipeline(source, &fakeAnalyzer{result: testAnalysis()}, defaultSampling, nil)
		sender := &recordingSender{}
		agent := NewWatchAgent(watchConfig("https://youtu.be/ddddddddddd"), p, sender)

		err := agent.RunOnce(context.Background(), &scheduler.AgentEvents{})
		assert.Error(t, err)
		assert.Empty(t, sender.digests)
	})

	t.Run("AnalysisErrorsStillMailed", func(t *testing.T) {
		p := NewPipeline(source, &fakeAnalyzer{err: models.ErrUpstreamTimeout}, defaultSampling, nil)
		sender := &recordingSender{}
		agent := NewWatchAgent(watchConfig("https://youtu.be/aaaaaaaaaaa"), p, sender)

		var success scheduler.Metrics
		events := &scheduler.AgentEvents{
			OnSuccess: func(m scheduler.Metrics, d time.Duration) { success = m },
		}
		require.NoError(t, agent.RunOnce(context.Background(), events))
		require.Len(t, sender.digests, 1)
		assert.NotEmpty(t, sender.digests[0].Reports[0].AnalysisError)
		assert.Equal(t, WatchMetrics{Videos: 1, AnalysisErrors: 1}, success)
	})

	t.Run("SendFailure", func(t *testing.T) {
		p := NewPipeline(source, &fakeAnalyzer{result: testAnalysis()}, defaultSampling, nil)
		sender := &recordingSender{err: errors.New("smtp unavailable")}
		agent := NewWatchAgent(watchConfig("https://youtu.be/aaaaaaaaaaa"), p, sender)

		err := agent.RunOnce(context.Background(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send digest")
	})
}

func TestWatchAgentWithScheduler(t *testing.T) {
	source := &routedSource{comments: map[string][]models.Comment{"aaaaaaaaaaa": makeComments(2)}}
	p := NewPipeline(source, &fakeAnalyzer{result: testAnalysis()}, defaultSampling, nil)
	agent := NewWatchAgent(watchConfig("https://youtu.be/aaaaaaaaaaa"), p, &recordingSender{})

	monitor := monitoring.NewMonitor()
	s := scheduler.New("0 0 9 * * *", agent, monitor)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.True(t, monitor.IsHealthy())
	assert.Contains(t, monitor.GetStatusSummary(), "analyzed 1")
}
