package models

import (
	"errors"
	"fmt"
)

// ErrorKind names a failure class of the analysis pipeline.
type ErrorKind string

const (
	KindInvalidIdentifier   ErrorKind = "InvalidIdentifier"
	KindNotFound            ErrorKind = "NotFound"
	KindNoComments          ErrorKind = "NoComments"
	KindUpstreamUnavailable ErrorKind = "UpstreamUnavailable"
	KindUpstreamTimeout     ErrorKind = "UpstreamTimeout"
	KindAnalysisParse       ErrorKind = "AnalysisParseError"
	KindExportFailed        ErrorKind = "ExportFailed"
	KindUnknown             ErrorKind = "Unknown"
)

var (
	ErrInvalidIdentifier   = errors.New("could not extract a valid video ID from the URL")
	ErrNotFound            = errors.New("video not found")
	ErrNoComments          = errors.New("no comments found for this video")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrUpstreamTimeout     = errors.New("upstream service timed out")
	ErrAnalysisParse       = errors.New("failed to parse AI analysis response")
	ErrExportFailed        = errors.New("CSV export failed")
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrInvalidIdentifier, KindInvalidIdentifier},
	{ErrNotFound, KindNotFound},
	{ErrNoComments, KindNoComments},
	{ErrUpstreamTimeout, KindUpstreamTimeout},
	{ErrUpstreamUnavailable, KindUpstreamUnavailable},
	{ErrAnalysisParse, KindAnalysisParse},
	{ErrExportFailed, KindExportFailed},
}

// KindOf maps err onto the error taxonomy. Timeouts are checked before
// general unavailability so a wrapped deadline reports as a timeout.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// ParseError is returned when a generated response could not be decoded,
// neither directly nor from a fenced code block. Raw holds the response text.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return ErrAnalysisParse.Error()
	}
	return fmt.Sprintf("%s: %v", ErrAnalysisParse, e.Err)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAnalysisParse}
	}
	return []error{ErrAnalysisParse, e.Err}
}
