package config

import (
	"testing"
	"time"

	"github.com/defeedco/doomscroll/pkg/gallery"
	"github.com/defeedco/doomscroll/pkg/lib/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, log.LogLevelInfo, cfg.Log.Level)
	assert.Equal(t, uint16(8080), cfg.API.Port)
	assert.Equal(t, 10, cfg.Gallery.PageSize)
	assert.Equal(t, 8*time.Second, cfg.Gallery.ProviderTimeout)
	assert.Equal(t, gallery.PolicyMerge, cfg.Gallery.Policy())
	assert.Equal(t, []string{"Doom", "classicdoom", "Doom_Eternal", "DoomMods"}, cfg.Providers.Reddit.Subreddits)
	assert.Equal(t, "doom game", cfg.Providers.Commons.Search)
	assert.Empty(t, cfg.Providers.Mastodon.InstanceURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GALLERY_PAGE_SIZE", "24")
	t.Setenv("GALLERY_PARTITION_POLICY", "roundrobin")
	t.Setenv("REDDIT_SUBREDDITS", "Doom;DoomMods")
	t.Setenv("RSS_FEED_URLS", "https://a.example.com/feed.xml;https://b.example.com/rss")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 24, cfg.Gallery.PageSize)
	assert.Equal(t, gallery.PolicyRoundRobin, cfg.Gallery.Policy())
	assert.Equal(t, []string{"Doom", "DoomMods"}, cfg.Providers.Reddit.Subreddits)
	assert.Len(t, cfg.Providers.RSS.FeedURLs, 2)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"page size", "GALLERY_PAGE_SIZE", "0"},
		{"policy", "GALLERY_PARTITION_POLICY", "random"},
		{"reddit sort", "REDDIT_SORT", "best"},
		{"log level", "LOG_LEVEL", "loud"},
		{"rss url", "RSS_FEED_URLS", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_RedditSecretRequiresID(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "abc")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("REDDIT_CLIENT_SECRET", "shh")

	_, err = Load()
	assert.NoError(t, err)
}
