package domain

// Metric names as they appear in channel results and rank fields.
const (
	MetricChannelID           = "channel_id"
	MetricChannelName         = "channel_name"
	MetricDateAdded           = "date_added"
	MetricSubscriberCount     = "subscriber_count"
	MetricObservedVideosCount = "observed_videos_count"

	MetricCount          = "count"
	MetricAvgViews       = "avg_views"
	MetricMaxViews       = "max_views"
	MetricMinViews       = "min_views"
	MetricAvgLikes       = "avg_likes"
	MetricMaxLikes       = "max_likes"
	MetricMinLikes       = "min_likes"
	MetricAvgDurationSec = "avg_duration_sec"
	MetricMaxDurationSec = "max_duration_sec"
	MetricMinDurationSec = "min_duration_sec"
	MetricAvgDurationStr = "avg_duration_str"
	MetricMaxDurationStr = "max_duration_str"
	MetricMinDurationStr = "min_duration_str"

	MetricAvgDurationSec30d   = "avg_duration_sec_30d"
	MetricAvgViewsPerVideo30d = "avg_views_per_video_30d"
	MetricVideosLast30dCount  = "videos_last_30d_count"
	MetricAvgEngagementRate   = "avg_engagement_rate"
	MetricViewsSumLast30d     = "views_sum_last_30d"
	MetricViewTrendRatio      = "view_trend_ratio"
)

// RankPrefix prefixes every rank field name.
const RankPrefix = "rank_"

// RankField returns the rank field name for a metric, e.g. rank_avg_views.
func RankField(metric string) string {
	return RankPrefix + metric
}

// resultFields lists every non-rank field of a channel result in display order.
var resultFields = []string{
	MetricChannelID,
	MetricChannelName,
	MetricDateAdded,
	MetricSubscriberCount,
	MetricObservedVideosCount,
	MetricCount,
	MetricAvgViews,
	MetricMaxViews,
	MetricMinViews,
	MetricAvgLikes,
	MetricMaxLikes,
	MetricMinLikes,
	MetricAvgDurationSec,
	MetricMaxDurationSec,
	MetricMinDurationSec,
	MetricAvgDurationStr,
	MetricMaxDurationStr,
	MetricMinDurationStr,
	MetricAvgDurationSec30d,
	MetricAvgViewsPerVideo30d,
	MetricVideosLast30dCount,
	MetricAvgEngagementRate,
	MetricViewsSumLast30d,
	MetricViewTrendRatio,
}

// ResultFields returns a copy of the field names exposed by ChannelResult.Field.
func ResultFields() []string {
	out := make([]string, len(resultFields))
	copy(out, resultFields)
	return out
}
