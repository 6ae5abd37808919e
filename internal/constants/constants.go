package constants

import "time"

var CacheTTL = struct {
	ChannelInfo time.Duration
}{
	ChannelInfo: 20 * time.Minute, // 채널 정보
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}

// YouTube Data API v3 quota accounting; every list call used here costs one unit.
var YouTubeQuota = struct {
	DailyLimit        int
	SafetyMargin      int
	ChannelsListCost  int
	PlaylistItemsCost int
	VideosListCost    int
}{
	DailyLimit:        10000,
	SafetyMargin:      500,
	ChannelsListCost:  1,
	PlaylistItemsCost: 1,
	VideosListCost:    1,
}

var YouTubeAPI = struct {
	MaxResultsPerPage int
	VideoBatchSize    int
	RequestTimeout    time.Duration
}{
	MaxResultsPerPage: 50,
	VideoBatchSize:    50,
	RequestTimeout:    30 * time.Second,
}

var CircuitBreakerConfig = struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}{
	FailureThreshold: 5,                // 연속 실패 허용 횟수
	ResetTimeout:     30 * time.Second, // 기본 재시도 대기 시간
}

var FetchConfig = struct {
	DefaultMaxVideos   int
	DefaultConcurrency int
}{
	DefaultMaxVideos:   50,
	DefaultConcurrency: 3,
}

var DatabaseConfig = struct {
	DefaultSQLiteFile string
	MaxOpenConns      int
	MaxIdleConns      int
	ConnMaxLifetime   time.Duration
	PingTimeout       time.Duration
}{
	DefaultSQLiteFile: "youtube_analytics_default.db",
	MaxOpenConns:      10,
	MaxIdleConns:      5,
	ConnMaxLifetime:   30 * time.Minute,
	PingTimeout:       5 * time.Second,
}

var StringLimits = struct {
	ChannelName int
}{
	ChannelName: 30,
}
