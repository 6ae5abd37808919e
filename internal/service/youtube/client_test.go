package youtube

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/kapu/youtube-channel-analyzer/internal/domain"
	"github.com/kapu/youtube-channel-analyzer/internal/util"
	"github.com/kapu/youtube-channel-analyzer/pkg/errors"
)

type fakeChannelCache struct {
	mu    sync.Mutex
	items map[string]*domain.ChannelDetails
	sets  int
}

func newFakeChannelCache() *fakeChannelCache {
	return &fakeChannelCache{items: make(map[string]*domain.ChannelDetails)}
}

func (f *fakeChannelCache) GetChannelDetails(_ context.Context, channelID string) (*domain.ChannelDetails, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.items[channelID]
	return d, ok
}

func (f *fakeChannelCache) SetChannelDetails(_ context.Context, details *domain.ChannelDetails) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[details.ID] = details
	f.sets++
}

func newTestClient(t *testing.T, handler http.Handler, cache ChannelCache) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := ClientConfig{
		APIKey:  "test-key",
		Options: []option.ClientOption{option.WithEndpoint(srv.URL + "/")},
	}
	if cache != nil {
		cfg.Cache = cache
	}

	client, err := NewClient(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	return client
}

func queryIDs(r *http.Request) []string {
	var ids []string
	for _, raw := range r.URL.Query()["id"] {
		ids = append(ids, strings.Split(raw, ",")...)
	}
	return ids
}

const quotaBody = `{"error":{"code":403,"message":"The request cannot be completed because you have exceeded your quota.","errors":[{"message":"quota","domain":"youtube.quota","reason":"quotaExceeded"}]}}`

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), ClientConfig{}, nil)

	var validationErr *errors.ValidationError
	assert.True(t, stderrors.As(err, &validationErr))
}

func TestGetChannelDetails(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/channels", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch queryIDs(r)[0] {
		case "UC_public":
			fmt.Fprint(w, `{"items":[{"id":"UC_public","snippet":{"title":"Public"},"contentDetails":{"relatedPlaylists":{"uploads":"UU_public"}},"statistics":{"subscriberCount":"12345","hiddenSubscriberCount":false}}]}`)
		case "UC_hidden":
			fmt.Fprint(w, `{"items":[{"id":"UC_hidden","snippet":{"title":"Hidden"},"contentDetails":{"relatedPlaylists":{"uploads":"UU_hidden"}},"statistics":{"hiddenSubscriberCount":true}}]}`)
		default:
			fmt.Fprint(w, `{"items":[]}`)
		}
	})
	client := newTestClient(t, handler, nil)
	ctx := context.Background()

	details, err := client.GetChannelDetails(ctx, "UC_public")
	require.NoError(t, err)
	assert.Equal(t, "Public", details.Title)
	assert.Equal(t, "UU_public", details.UploadsPlaylistID)
	require.NotNil(t, details.SubscriberCount)
	assert.Equal(t, int64(12345), *details.SubscriberCount)

	hidden, err := client.GetChannelDetails(ctx, "UC_hidden")
	require.NoError(t, err)
	assert.Nil(t, hidden.SubscriberCount)

	_, err = client.GetChannelDetails(ctx, "UC_missing")
	assert.ErrorIs(t, err, ErrChannelNotFound)

	used, _, _ := client.QuotaStatus()
	assert.Equal(t, 3, used)
}

func TestGetChannelDetails_UsesCache(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"items":[{"id":"UC1","snippet":{"title":"Cached"},"contentDetails":{"relatedPlaylists":{"uploads":"UU1"}},"statistics":{"subscriberCount":"1"}}]}`)
	})
	cache := newFakeChannelCache()
	client := newTestClient(t, handler, cache)

	for i := 0; i < 3; i++ {
		details, err := client.GetChannelDetails(context.Background(), "UC1")
		require.NoError(t, err)
		assert.Equal(t, "Cached", details.Title)
	}

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, cache.sets)
}

func playlistHandler(t *testing.T, pages map[string]string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/playlistItems", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("maxResults"))
		body, ok := pages[r.URL.Query().Get("pageToken")]
		assert.True(t, ok, "unexpected page token %q", r.URL.Query().Get("pageToken"))
		fmt.Fprint(w, body)
	})
}

func TestGetPlaylistVideoIDs(t *testing.T) {
	pages := map[string]string{
		"":   `{"items":[{"contentDetails":{"videoId":"v1"}},{"contentDetails":{}},{"contentDetails":{"videoId":"v2"}}],"nextPageToken":"p2"}`,
		"p2": `{"items":[{"contentDetails":{"videoId":"v3"}},{"contentDetails":{"videoId":"v4"}}]}`,
	}

	tests := []struct {
		name       string
		maxResults int
		want       []string
	}{
		{name: "all pages", maxResults: 0, want: []string{"v1", "v2", "v3", "v4"}},
		{name: "stops inside first page", maxResults: 1, want: []string{"v1"}},
		{name: "stops inside second page", maxResults: 3, want: []string{"v1", "v2", "v3"}},
		{name: "limit above total", maxResults: 10, want: []string{"v1", "v2", "v3", "v4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, playlistHandler(t, pages), nil)

			ids, err := client.GetPlaylistVideoIDs(context.Background(), "UU1", tt.maxResults)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestGetPlaylistVideoIDs_PartialOnError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "" {
			fmt.Fprint(w, `{"items":[{"contentDetails":{"videoId":"v1"}}],"nextPageToken":"p2"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":404,"message":"playlistNotFound"}}`)
	})
	client := newTestClient(t, handler, nil)

	ids, err := client.GetPlaylistVideoIDs(context.Background(), "UU1", 0)

	assert.Equal(t, []string{"v1"}, ids)
	var apiErr *errors.APIError
	require.True(t, stderrors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func videoItem(id string) string {
	return fmt.Sprintf(`{"id":%q,"snippet":{"title":"Video %s","publishedAt":"2024-05-01T12:00:00Z"},"contentDetails":{"duration":"PT1M35S"},"statistics":{"viewCount":"100","likeCount":"5","commentCount":"2"}}`, id, id)
}

func videosHandler(t *testing.T, batchSizes *[]int, fail func(call int) (int, string)) http.Handler {
	var mu sync.Mutex
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/videos", r.URL.Path)
		ids := queryIDs(r)

		mu.Lock()
		*batchSizes = append(*batchSizes, len(ids))
		call := len(*batchSizes)
		mu.Unlock()

		if fail != nil {
			if status, body := fail(call); status != 0 {
				w.WriteHeader(status)
				fmt.Fprint(w, body)
				return
			}
		}

		items := make([]string, 0, len(ids))
		for _, id := range ids {
			items = append(items, videoItem(id))
		}
		fmt.Fprintf(w, `{"items":[%s]}`, strings.Join(items, ","))
	})
}

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("vid%03d", i)
	}
	return ids
}

func TestGetVideoDetails_Batches(t *testing.T) {
	var batches []int
	client := newTestClient(t, videosHandler(t, &batches, nil), nil)

	videos, err := client.GetVideoDetails(context.Background(), makeIDs(120))
	require.NoError(t, err)

	assert.Equal(t, []int{50, 50, 20}, batches)
	require.Len(t, videos, 120)

	first := videos[0]
	assert.Equal(t, "vid000", first.ID)
	assert.Equal(t, "Video vid000", first.Title)
	require.NotNil(t, first.PublishedAt)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), *first.PublishedAt)
	assert.Equal(t, int64(95), first.DurationSeconds)
	assert.Equal(t, int64(100), first.ViewCount)
	assert.Equal(t, int64(5), first.LikeCount)
	assert.Equal(t, int64(2), first.CommentCount)
	assert.False(t, first.FetchDate.IsZero())
}

func TestGetVideoDetails_SkipsFailedBatch(t *testing.T) {
	var batches []int
	fail := func(call int) (int, string) {
		if call == 1 {
			return http.StatusBadRequest, `{"error":{"code":400,"message":"bad ids"}}`
		}
		return 0, ""
	}
	client := newTestClient(t, videosHandler(t, &batches, fail), nil)

	videos, err := client.GetVideoDetails(context.Background(), makeIDs(60))
	require.NoError(t, err)

	assert.Len(t, batches, 2)
	require.Len(t, videos, 10)
	assert.Equal(t, "vid050", videos[0].ID)
}

func TestGetVideoDetails_QuotaStopsAndFailsFast(t *testing.T) {
	var batches []int
	fail := func(call int) (int, string) {
		if call == 2 {
			return http.StatusForbidden, quotaBody
		}
		return 0, ""
	}
	client := newTestClient(t, videosHandler(t, &batches, fail), nil)

	videos, err := client.GetVideoDetails(context.Background(), makeIDs(150))

	require.Error(t, err)
	assert.True(t, IsQuotaExceeded(err))
	assert.Len(t, videos, 50)
	assert.Len(t, batches, 2)

	var quotaErr *errors.QuotaError
	assert.True(t, stderrors.As(err, &quotaErr))

	_, err = client.GetVideoDetails(context.Background(), makeIDs(5))
	assert.True(t, IsQuotaExceeded(err))
	assert.Len(t, batches, 2, "no request after quota exhaustion")
}

func TestGetVideoDetails_RecoversAfterQuotaReset(t *testing.T) {
	var batches []int
	fail := func(call int) (int, string) {
		if call == 1 {
			return http.StatusForbidden, quotaBody
		}
		return 0, ""
	}
	client := newTestClient(t, videosHandler(t, &batches, fail), nil)

	_, err := client.GetVideoDetails(context.Background(), makeIDs(5))
	require.True(t, IsQuotaExceeded(err))

	client.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	videos, err := client.GetVideoDetails(context.Background(), makeIDs(5))
	require.NoError(t, err)
	assert.Len(t, videos, 5)
	assert.Len(t, batches, 2)
	assert.Equal(t, util.CircuitStateClosed, client.breaker.GetStatus().State)
}

func TestGetVideoDetails_Empty(t *testing.T) {
	var batches []int
	client := newTestClient(t, videosHandler(t, &batches, nil), nil)

	videos, err := client.GetVideoDetails(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, videos)
	assert.Empty(t, batches)
}
