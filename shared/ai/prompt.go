package ai

import (
	"fmt"
	"strings"

	"comment-insights/internal/models"
)

func buildCommentPrompt(video *models.VideoMetadata, comments []models.Comment, total int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an analyst summarizing viewer feedback on the YouTube video %q by %s.\n\n", video.Title, video.Channel)

	b.WriteString("VIDEO DETAILS:\n")
	fmt.Fprintf(&b, "Title: %s\n", video.Title)
	fmt.Fprintf(&b, "Channel: %s\n", video.Channel)
	fmt.Fprintf(&b, "Published: %s\n", video.PublishedAt)
	fmt.Fprintf(&b, "Views: %d\n", video.ViewCount)
	fmt.Fprintf(&b, "Likes: %d\n", video.LikeCount)
	fmt.Fprintf(&b, "Comments: %d\n", video.CommentCount)
	fmt.Fprintf(&b, "Total Comments Analyzed: %d out of %d\n\n", len(comments), total)

	b.WriteString("COMMENTS:\n")
	for i, c := range comments {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Author: %s\nComment: %s\nLikes: %d\nPublished: %s\n", c.Author, c.Text, c.Likes, c.PublishedAt)
	}

	b.WriteString(`
Respond with a single JSON object with exactly these keys:
{
  "sentiment": {"positive": integer, "neutral": integer, "negative": integer},
  "themes": [5-10 short strings naming recurring topics],
  "positiveFeedback": [3-5 strings summarizing what viewers liked],
  "negativeFeedback": {
    "summary": "a paragraph summarizing the criticism",
    "points": [3-5 strings, each a criticism with supporting evidence from the comments],
    "impact": "how this criticism may affect viewer perception"
  },
  "questions": [3-5 strings with common viewer questions],
  "suggestions": {
    "summary": "a paragraph overview of viewer suggestions",
    "details": [3-5 strings explaining each suggestion],
    "implementation": "practical advice for acting on the suggestions",
    "priority": [suggestions ordered by frequency and engagement]
  }
}
The sentiment values are percentages that sum to 100.
Return only the JSON object, without markdown or any other text.
`)

	return b.String()
}
