package models

import "time"

// VideoMetadata is the snapshot of a video taken once per request.
type VideoMetadata struct {
	ID           string `json:"video_id"`
	Title        string `json:"title"`
	Channel      string `json:"channel"`
	PublishedAt  string `json:"published_at"`
	ViewCount    uint64 `json:"view_count"`
	LikeCount    uint64 `json:"like_count"`
	CommentCount uint64 `json:"comment_count"`
	Thumbnail    string `json:"thumbnail"`
	URL          string `json:"url"`
}

// Comment is a top-level comment as reported by the source API.
// Text is an untrusted HTML fragment and must only be displayed.
type Comment struct {
	ID          string `json:"comment_id"`
	Author      string `json:"author"`
	Text        string `json:"text"`
	Likes       int64  `json:"likes"`
	PublishedAt string `json:"published_at"`
}

// PublishedTime parses PublishedAt. Unparseable timestamps yield the zero time,
// which sorts them last among recent comments.
func (c Comment) PublishedTime() time.Time {
	t, err := time.Parse(time.RFC3339, c.PublishedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}
