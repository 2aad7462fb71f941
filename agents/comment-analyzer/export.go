package commentanalyzer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"comment-insights/internal/models"
)

var csvHeader = []string{"comment_id", "author", "text", "likes", "published_at"}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// StripTags removes markup spans from comment text.
func StripTags(s string) string {
	return htmlTag.ReplaceAllString(s, "")
}

// WriteCSV streams comments to w, header first, one row per comment.
func WriteCSV(w io.Writer, comments []models.Comment) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("%w: header: %w", models.ErrExportFailed, err)
	}

	for _, c := range comments {
		row := []string{
			c.ID,
			c.Author,
			StripTags(c.Text),
			strconv.FormatInt(c.Likes, 10),
			c.PublishedAt,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: comment %s: %w", models.ErrExportFailed, c.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", models.ErrExportFailed, err)
	}
	return nil
}

// ExportCSV renders every comment into an in-memory CSV document.
func ExportCSV(comments []models.Comment) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, comments); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
