package models

import "time"

// Report is the result of analyzing one video. Analysis is nil when the
// analysis step failed; AnalysisError then carries the reason while the rest
// of the report is complete.
type Report struct {
	Success       bool             `json:"success"`
	RequestID     string           `json:"request_id"`
	VideoID       string           `json:"video_id"`
	Video         *VideoMetadata   `json:"videoDetails"`
	Comments      []Comment        `json:"comments"`
	Analysis      *AnalysisResult  `json:"analysis,omitempty"`
	AnalysisError string           `json:"error,omitempty"`
	SentimentData []SentimentSlice `json:"sentimentData,omitempty"`
	CSVContent    string           `json:"csvContent"`
	AnalyzedCount int              `json:"analyzed_count"`
	TotalCount    int              `json:"total_count"`
	GeneratedAt   time.Time        `json:"generated_at"`
}

// Digest is the outcome of one scheduled watch run.
type Digest struct {
	Date     time.Time
	Reports  []*Report
	Failures []DigestFailure
}

// DigestFailure records a watched video whose analysis failed fatally.
type DigestFailure struct {
	URL   string
	Kind  ErrorKind
	Error string
}
