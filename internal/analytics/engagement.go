package analytics

import "github.com/kapu/youtube-channel-analyzer/internal/domain"

// EngagementRate returns (likes + comments) / views * 100 for one video,
// and false when the video has no views to divide by.
func EngagementRate(views, likes, comments int64) (float64, bool) {
	if views <= 0 {
		return 0, false
	}
	return float64(likes+comments) / float64(views) * 100, true
}

// CalculateAverageEngagementRate averages the per-video engagement rate, rounded to 2 decimals.
// Zero-view videos are excluded from both the sum and the count; with no valid video the result is 0.
func CalculateAverageEngagementRate(records []domain.VideoRecord) float64 {
	var total float64
	valid := 0

	for _, r := range records {
		rate, ok := EngagementRate(r.ViewCount, r.LikeCount, r.CommentCount)
		if !ok {
			continue
		}
		total += rate
		valid++
	}

	if valid == 0 {
		return 0.0
	}
	return roundTo(total/float64(valid), 2)
}
