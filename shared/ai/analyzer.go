package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"comment-insights/internal/models"
	"comment-insights/shared/config"

	"github.com/sirupsen/logrus"
)

// Generator sends a single-turn prompt to a text-generation service and
// returns the raw response text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Analyzer struct {
	generator Generator
	timeout   time.Duration
}

func NewAnalyzer(cfg *config.AIConfig, generator Generator) *Analyzer {
	return &Analyzer{
		generator: generator,
		timeout:   cfg.Timeout(),
	}
}

// AnalyzeComments asks the generator for a structured summary of sampled,
// which was drawn from total comments on video.
func (a *Analyzer) AnalyzeComments(ctx context.Context, video *models.VideoMetadata, sampled []models.Comment, total int) (*models.AnalysisResult, error) {
	if video == nil {
		return nil, fmt.Errorf("video cannot be nil")
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	prompt := buildCommentPrompt(video, sampled, total)

	start := time.Now()
	text, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("analysis of video %s after %v: %w: %w", video.ID, time.Since(start).Round(time.Millisecond), models.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("analysis of video %s: %w: %w", video.ID, models.ErrUpstreamUnavailable, err)
	}

	result, err := ParseAnalysis(text)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"video_id":     video.ID,
			"response_len": len(text),
		}).Debugf("Unparseable analysis response: %s", truncateString(text, 500))
		return nil, fmt.Errorf("analysis of video %s: %w", video.ID, err)
	}

	return result, nil
}

var fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// ParseAnalysis decodes a generated response. The whole text is tried first,
// then the contents of the first fenced code block. When both fail the
// returned *models.ParseError carries the raw text.
func ParseAnalysis(raw string) (*models.AnalysisResult, error) {
	result, err := decodeAnalysis(raw)
	if err == nil {
		return result, nil
	}

	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		fenced, fencedErr := decodeAnalysis(m[1])
		if fencedErr == nil {
			return fenced, nil
		}
		err = fencedErr
	}

	return nil, &models.ParseError{Raw: raw, Err: err}
}

func decodeAnalysis(s string) (*models.AnalysisResult, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil, errors.New("response is not a JSON object")
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(s), &result); err != nil {
		// A field of the wrong shape is skipped, the rest is kept.
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			logrus.Debugf("Ignoring mistyped analysis field %q: %v", typeErr.Field, err)
			return &result, nil
		}
		return nil, err
	}
	return &result, nil
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}
