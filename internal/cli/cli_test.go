package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/youtube-channel-analyzer/internal/domain"
	"github.com/kapu/youtube-channel-analyzer/internal/service/database"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(Options{Version: "1.2.3", Logger: zap.NewNop(), Now: func() time.Time { return fixedNow }})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func setupStorage(t *testing.T) (dbPath, channelsFile string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "analytics.db")
	channelsFile = filepath.Join(dir, "channels.txt")

	require.NoError(t, os.WriteFile(channelsFile, []byte("# test channels\nUCbig\nUCsmall\n"), 0o644))

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_NAME", dbPath)
	t.Setenv("YOUTUBE_API_KEY", "")
	t.Setenv("YOUTUBE_OAUTH_CREDENTIALS", "")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("RANK_ASCENDING_METRICS", "min_duration_sec")

	ctx := context.Background()
	repo, err := database.Open(ctx, database.DriverSQLite, dbPath, database.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	defer repo.Close()

	big, small := int64(9000), int64(100)
	require.NoError(t, repo.SaveChannel(ctx, &domain.ChannelDetails{ID: "UCbig", Title: "Big", SubscriberCount: &big}))
	require.NoError(t, repo.SaveChannel(ctx, &domain.ChannelDetails{ID: "UCsmall", Title: "Small", SubscriberCount: &small}))

	published := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveVideos(ctx, "UCbig", []domain.VideoDetails{
		{ID: "v1", Title: "one", PublishedAt: &published, DurationSeconds: 300, ViewCount: 5000, LikeCount: 100, CommentCount: 10},
	}))
	require.NoError(t, repo.SaveVideos(ctx, "UCsmall", []domain.VideoDetails{
		{ID: "v2", Title: "two", PublishedAt: &published, DurationSeconds: 60, ViewCount: 50, LikeCount: 5, CommentCount: 0},
	}))
	return dbPath, channelsFile
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "analyzer 1.2.3\n", out)
}

func TestReportCommand_JSON(t *testing.T) {
	_, channelsFile := setupStorage(t)

	out, err := execute(t, "report", "--channels", channelsFile, "--json")
	require.NoError(t, err)

	var report struct {
		SortBy   string           `json:"sort_by"`
		Channels []map[string]any `json:"channels"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Channels, 2)
	assert.Equal(t, "UCbig", report.Channels[0][domain.MetricChannelID])
	assert.EqualValues(t, 1, report.Channels[0][domain.RankField(domain.MetricAvgViews)])
	assert.EqualValues(t, 5000, report.Channels[0][domain.MetricViewsSumLast30d])
}

func TestReportCommand_TableSortedByOtherMetric(t *testing.T) {
	_, channelsFile := setupStorage(t)

	out, err := execute(t, "report", "--channels", channelsFile, "--no-color", "--sort-by", domain.MetricMinDurationSec)
	require.NoError(t, err)
	assert.Contains(t, out, "Rank(min_duration_sec)")
	assert.Less(t, bytes.Index([]byte(out), []byte("Small")), bytes.Index([]byte(out), []byte("Big")),
		"shorter minimum duration ranks first")
}

func TestReportCommand_RejectsUnknownSortMetric(t *testing.T) {
	_, channelsFile := setupStorage(t)

	_, err := execute(t, "report", "--channels", channelsFile, "--sort-by", "channel_name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sort metric")
}

func TestReportCommand_MissingChannelsFile(t *testing.T) {
	setupStorage(t)

	_, err := execute(t, "report", "--channels", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestRunCommand_AnalyzesWhenOAuthTokenIsMissing(t *testing.T) {
	_, channelsFile := setupStorage(t)
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(creds, []byte(`{"installed":{"client_id":"id","client_secret":"secret","redirect_uris":["urn:ietf:wg:oauth:2.0:oob"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`), 0o600))
	t.Setenv("YOUTUBE_OAUTH_CREDENTIALS", creds)
	t.Setenv("YOUTUBE_OAUTH_TOKEN", filepath.Join(dir, "token.json"))
	t.Setenv("FETCH_FROM_API", "false")

	out, err := execute(t, "run", "--channels", channelsFile, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"UCbig"`)
}

func TestFetchCommand_RequiresCredentials(t *testing.T) {
	_, channelsFile := setupStorage(t)

	_, err := execute(t, "fetch", "--channels", channelsFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YOUTUBE_API_KEY")
}

func TestAuthCommand_RequiresCredentialsFile(t *testing.T) {
	t.Setenv("YOUTUBE_OAUTH_CREDENTIALS", "")

	_, err := execute(t, "auth")
	require.Error(t, err)
}
