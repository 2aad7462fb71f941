package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"comment-insights/internal/models"
	"comment-insights/shared/config"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

var videoIDPattern = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`)

// ExtractVideoID returns the first 11-character video identifier found after
// "v=" or a "/" in raw. It accepts watch, share, embed and shorts URLs.
func ExtractVideoID(raw string) (string, error) {
	m := videoIDPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", models.ErrInvalidIdentifier
	}
	return m[1], nil
}

type Client struct {
	service *youtube.Service
	config  *config.YouTubeConfig
}

// NewClient builds a YouTube Data API client. Requests carry the API key
// unless OAuth client credentials are configured. httpClient supplies the
// underlying transport (rate limiting); nil uses the default transport.
func NewClient(ctx context.Context, cfg *config.YouTubeConfig, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	var authed *http.Client
	if cfg.UseOAuth() {
		c, err := newOAuthHTTPClient(ctx, cfg, httpClient)
		if err != nil {
			return nil, err
		}
		authed = c
	} else {
		var base http.RoundTripper
		if httpClient != nil {
			base = httpClient.Transport
		}
		authed = &http.Client{Transport: &transport.APIKey{Key: cfg.APIKey, Transport: base}}
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(authed)}, opts...)
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return NewClientWithService(service, cfg), nil
}

// NewClientWithService wraps an already configured service.
func NewClientWithService(service *youtube.Service, cfg *config.YouTubeConfig) *Client {
	return &Client{service: service, config: cfg}
}

// VideoMetadata fetches the snippet and statistics of one video.
func (c *Client) VideoMetadata(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	resp, err := c.service.Videos.List([]string{"snippet", "statistics"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("videos.list", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, fmt.Errorf("video %s: %w", videoID, models.ErrNotFound)
	}

	item := resp.Items[0]
	video := &models.VideoMetadata{
		ID:          item.Id,
		Title:       item.Snippet.Title,
		Channel:     item.Snippet.ChannelTitle,
		PublishedAt: item.Snippet.PublishedAt,
		Thumbnail:   bestThumbnail(item.Snippet.Thumbnails),
		URL:         fmt.Sprintf("https://www.youtube.com/watch?v=%s", item.Id),
	}
	if video.ID == "" {
		video.ID = videoID
		video.URL = fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	}
	if item.Statistics != nil {
		video.ViewCount = item.Statistics.ViewCount
		video.LikeCount = item.Statistics.LikeCount
		video.CommentCount = item.Statistics.CommentCount
	}

	return video, nil
}

func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, thumb := range []*youtube.Thumbnail{t.Maxres, t.High, t.Medium, t.Default} {
		if thumb != nil && thumb.Url != "" {
			return thumb.Url
		}
	}
	return ""
}

// Comments pages through the top-level comment threads of a video. A failed
// page ends pagination and the comments collected so far are returned, so the
// result may be partial or empty but never an error.
func (c *Client) Comments(ctx context.Context, videoID string) []models.Comment {
	var comments []models.Comment
	pageToken := ""

	for page := 1; ; page++ {
		call := c.service.CommentThreads.List([]string{"snippet"}).
			VideoId(videoID).
			MaxResults(c.config.PageSize).
			TextFormat("html").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"video_id": videoID,
				"page":     page,
				"comments": len(comments),
			}).Warnf("Stopping comment pagination: %v", err)
			return comments
		}

		for _, item := range resp.Items {
			if comment, ok := toComment(item); ok {
				comments = append(comments, comment)
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		if c.config.MaxPages > 0 && page >= c.config.MaxPages {
			logrus.WithFields(logrus.Fields{
				"video_id": videoID,
				"pages":    page,
			}).Info("Reached comment page limit")
			break
		}
		pageToken = resp.NextPageToken
	}

	logrus.WithFields(logrus.Fields{
		"video_id": videoID,
		"comments": len(comments),
	}).Debug("Fetched comments")

	return comments
}

func toComment(item *youtube.CommentThread) (models.Comment, bool) {
	if item == nil || item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
		return models.Comment{}, false
	}
	s := item.Snippet.TopLevelComment.Snippet
	id := item.Id
	if id == "" {
		id = item.Snippet.TopLevelComment.Id
	}
	return models.Comment{
		ID:          id,
		Author:      s.AuthorDisplayName,
		Text:        s.TextDisplay,
		Likes:       s.LikeCount,
		PublishedAt: s.PublishedAt,
	}, true
}

func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, models.ErrUpstreamTimeout, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrUpstreamUnavailable, err)
}
