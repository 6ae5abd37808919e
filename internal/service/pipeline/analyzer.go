package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/youtube-channel-analyzer/internal/analytics"
	"github.com/kapu/youtube-channel-analyzer/internal/domain"
)

// AnalyticsStore is the read side used to build channel results.
type AnalyticsStore interface {
	GetChannelName(ctx context.Context, channelID string) (string, error)
	GetChannelAddDate(ctx context.Context, channelID string) (*time.Time, error)
	GetChannelSubscribers(ctx context.Context, channelID string) (*int64, error)
	GetTotalVideosCount(ctx context.Context, channelID string) (int64, error)
	GetVideoStatsForChannel(ctx context.Context, channelID string) ([]domain.VideoStatTriple, error)
	GetVideosPublishedBetween(ctx context.Context, channelID string, start, end time.Time) ([]domain.VideoRecord, error)
}

// Analyzer builds ranked channel results from stored data.
type Analyzer struct {
	store  AnalyticsStore
	ranker *analytics.Ranker
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer; a nil ranker uses the standard ranking table.
func NewAnalyzer(store AnalyticsStore, ranker *analytics.Ranker, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ranker == nil {
		ranker = analytics.NewRanker(nil, logger)
	}
	return &Analyzer{store: store, ranker: ranker, logger: logger}
}

// AnalyzeAll analyzes channels one at a time, in input order, and ranks the
// results once at the end. Storage errors degrade the affected fields only.
func (a *Analyzer) AnalyzeAll(ctx context.Context, channelIDs []string, now time.Time) ([]domain.ChannelResult, error) {
	windows := analytics.NewTrendWindows(now)
	a.logger.Info("Analyzing channels",
		zap.Int("channels", len(channelIDs)),
		zap.Time("currentStart", windows.Current.Start),
		zap.Time("today", windows.Today))

	results := make([]domain.ChannelResult, 0, len(channelIDs))
	for _, channelID := range channelIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, a.AnalyzeChannel(ctx, channelID, windows))
	}

	return a.ranker.Rank(results), nil
}

// AnalyzeChannel builds one unranked result. Both trend windows come from one
// storage read; when it fails the window metrics stay unset.
func (a *Analyzer) AnalyzeChannel(ctx context.Context, channelID string, windows analytics.TrendWindows) domain.ChannelResult {
	result := a.describe(ctx, channelID)

	triples, err := a.store.GetVideoStatsForChannel(ctx, channelID)
	if err != nil {
		a.logger.Error("Failed to load video stats", zap.String("channel", channelID), zap.Error(err))
	} else {
		result.Stats = analytics.CalculateBasicStats(triples)
	}

	records, err := a.store.GetVideosPublishedBetween(ctx, channelID, windows.Previous.Start, windows.Current.End)
	if err != nil {
		a.logger.Error("Failed to load trend windows", zap.String("channel", channelID), zap.Error(err))
		return result
	}

	current, previous := windows.Split(records)
	window := analytics.CalculateWindowStats(current, previous)
	result.Window = &window

	a.logger.Debug("Channel analyzed",
		zap.String("channel", channelID),
		zap.Int64("observedVideos", result.ObservedVideosCount),
		zap.Int64("videos30d", window.VideosLast30dCount))
	return result
}

func (a *Analyzer) describe(ctx context.Context, channelID string) domain.ChannelResult {
	result := domain.NewChannelResult(channelID)

	name, err := a.store.GetChannelName(ctx, channelID)
	if err != nil {
		a.logger.Warn("Failed to load channel name", zap.String("channel", channelID), zap.Error(err))
	}
	if name == "" {
		name = domain.UnknownChannelName(channelID)
	}
	result.ChannelName = name

	if result.DateAdded, err = a.store.GetChannelAddDate(ctx, channelID); err != nil {
		a.logger.Warn("Failed to load date added", zap.String("channel", channelID), zap.Error(err))
	}
	if result.SubscriberCount, err = a.store.GetChannelSubscribers(ctx, channelID); err != nil {
		a.logger.Warn("Failed to load subscribers", zap.String("channel", channelID), zap.Error(err))
	}
	if result.ObservedVideosCount, err = a.store.GetTotalVideosCount(ctx, channelID); err != nil {
		a.logger.Warn("Failed to load video count", zap.String("channel", channelID), zap.Error(err))
	}
	return result
}
