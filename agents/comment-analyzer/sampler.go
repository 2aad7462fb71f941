package commentanalyzer

import (
	"sort"

	"comment-insights/internal/models"
	"comment-insights/shared/config"
)

// Sample bounds the comments sent for analysis. Up to cfg.Cap comments are
// returned unchanged. Larger sets keep every stride-th comment, with stride
// ceil(n/Cap), and then add the cfg.Recent newest and cfg.Liked most liked
// comments that are not already present. The result never exceeds
// Cap+Recent+Liked and holds no duplicate ids.
func Sample(comments []models.Comment, cfg config.SamplingConfig) []models.Comment {
	n := len(comments)
	if cfg.Cap <= 0 || n <= cfg.Cap {
		return comments
	}

	stride := (n + cfg.Cap - 1) / cfg.Cap
	sampled := make([]models.Comment, 0, cfg.Cap+cfg.Recent+cfg.Liked)
	seen := make(map[string]struct{}, cap(sampled))

	add := func(c models.Comment) {
		if _, ok := seen[c.ID]; ok {
			return
		}
		seen[c.ID] = struct{}{}
		sampled = append(sampled, c)
	}

	for i := 0; i < n; i += stride {
		add(comments[i])
	}

	for _, c := range top(comments, cfg.Recent, func(a, b models.Comment) bool {
		return a.PublishedTime().After(b.PublishedTime())
	}) {
		add(c)
	}

	for _, c := range top(comments, cfg.Liked, func(a, b models.Comment) bool {
		return a.Likes > b.Likes
	}) {
		add(c)
	}

	return sampled
}

// top returns the first k comments under less without reordering comments.
// Ties keep source order.
func top(comments []models.Comment, k int, less func(a, b models.Comment) bool) []models.Comment {
	if k <= 0 {
		return nil
	}
	sorted := make([]models.Comment, len(comments))
	copy(sorted, comments)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[:k]
}
