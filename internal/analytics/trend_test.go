package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/kapu/youtube-channel-analyzer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTrendRatio(t *testing.T) {
	assert.Nil(t, CalculateTrendRatio(0, 0))

	inf := CalculateTrendRatio(50, 0)
	require.NotNil(t, inf)
	assert.True(t, math.IsInf(*inf, 1))

	ratio := CalculateTrendRatio(150, 100)
	require.NotNil(t, ratio)
	assert.Equal(t, 1.5, *ratio)

	ratio = CalculateTrendRatio(1, 3)
	require.NotNil(t, ratio)
	assert.Equal(t, 0.33, *ratio)

	ratio = CalculateTrendRatio(0, 100)
	require.NotNil(t, ratio)
	assert.Equal(t, 0.0, *ratio)
}

func TestNewTrendWindows(t *testing.T) {
	now := time.Date(2024, 3, 31, 15, 4, 5, 0, time.FixedZone("KST", 9*3600))
	tw := NewTrendWindows(now)

	today := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today, tw.Today)
	assert.Equal(t, today.AddDate(0, 0, -30), tw.Current.Start)
	assert.Equal(t, today, tw.Current.End)
	assert.Equal(t, today.AddDate(0, 0, -60), tw.Previous.Start)
	assert.Equal(t, tw.Current.Start, tw.Previous.End)
}

func TestTrendWindows_SplitIsHalfOpen(t *testing.T) {
	tw := NewTrendWindows(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	records := []domain.VideoRecord{
		{VideoID: "today", PublishedAt: tw.Today},
		{VideoID: "current-start", PublishedAt: tw.Current.Start},
		{VideoID: "current-last", PublishedAt: tw.Today.Add(-time.Second)},
		{VideoID: "previous-start", PublishedAt: tw.Previous.Start},
		{VideoID: "previous-last", PublishedAt: tw.Current.Start.Add(-time.Second)},
		{VideoID: "too-old", PublishedAt: tw.Previous.Start.Add(-time.Second)},
	}

	current, previous := tw.Split(records)

	assert.Equal(t, []string{"current-start", "current-last"}, videoIDs(current))
	assert.Equal(t, []string{"previous-start", "previous-last"}, videoIDs(previous))
}

func TestCalculateWindowStats(t *testing.T) {
	current := []domain.VideoRecord{
		{ViewCount: 100, LikeCount: 5, CommentCount: 5, DurationSeconds: 60},
		{ViewCount: 50, LikeCount: 0, CommentCount: 0, DurationSeconds: 121},
	}
	previous := []domain.VideoRecord{{ViewCount: 100}}

	stats := CalculateWindowStats(current, previous)

	assert.Equal(t, int64(2), stats.VideosLast30dCount)
	assert.Equal(t, int64(150), stats.ViewsSumLast30d)
	assert.Equal(t, int64(75), stats.AvgViewsPerVideo30d)
	assert.Equal(t, int64(90), stats.AvgDurationSec30d)
	assert.Equal(t, 5.0, stats.AvgEngagementRate)
	assert.Equal(t, int64(100), stats.ViewsSumPrev30d)
	require.NotNil(t, stats.ViewTrendRatio)
	assert.Equal(t, 1.5, *stats.ViewTrendRatio)
}

func TestCalculateWindowStats_EmptyWindows(t *testing.T) {
	stats := CalculateWindowStats(nil, nil)

	assert.Equal(t, int64(0), stats.VideosLast30dCount)
	assert.Equal(t, int64(0), stats.AvgViewsPerVideo30d)
	assert.Equal(t, int64(0), stats.AvgDurationSec30d)
	assert.Equal(t, 0.0, stats.AvgEngagementRate)
	assert.Nil(t, stats.ViewTrendRatio)
}

func TestCalculateWindowStats_GrowthFromZero(t *testing.T) {
	stats := CalculateWindowStats([]domain.VideoRecord{{ViewCount: 50}}, nil)

	require.NotNil(t, stats.ViewTrendRatio)
	assert.True(t, math.IsInf(*stats.ViewTrendRatio, 1))
	assert.Equal(t, int64(0), stats.AvgDurationSec30d)
}

func videoIDs(records []domain.VideoRecord) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.VideoID)
	}
	return ids
}
