package providers

import (
	"testing"

	"github.com/defeedco/doomscroll/pkg/gallery"
	"github.com/defeedco/doomscroll/pkg/gallery/providers/commons"
	"github.com/defeedco/doomscroll/pkg/gallery/providers/mastodon"
	"github.com/defeedco/doomscroll/pkg/gallery/providers/reddit"
	"github.com/defeedco/doomscroll/pkg/gallery/providers/rss"
	"github.com/defeedco/doomscroll/pkg/gallery/providers/wikipedia"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *Config {
	return &Config{
		Reddit: reddit.Config{
			Subreddits: []string{"Doom", "classicdoom"},
			SortBy:     "hot",
			TopPeriod:  "week",
		},
		Commons: commons.Config{
			Search: "doom game",
			APIURL: "https://commons.wikimedia.org/w/api.php",
		},
		Wikipedia: wikipedia.Config{
			Articles:           []string{"Doom (1993 video game)"},
			APIURL:             "https://en.wikipedia.org/w/api.php",
			ResolveConcurrency: 8,
		},
	}
}

func tierNames(tiers []gallery.Tier) []string {
	names := make([]string, len(tiers))
	for i, tier := range tiers {
		names[i] = tier.Name
	}
	return names
}

func TestBuildTiers_DefaultOrder(t *testing.T) {
	logger := zerolog.Nop()

	tiers, err := BuildTiers(defaultConfig(), gallery.PolicyMerge, &logger)
	require.NoError(t, err)

	assert.Equal(t, []string{TierReddit, TierCommons, TierWikipedia}, tierNames(tiers))
	assert.Len(t, tiers[0].Feeds, 2, "one feed per subreddit")
	assert.Equal(t, "redditsubreddit:Doom:hot", tiers[0].Feeds[0].UID().String())
	assert.Equal(t, gallery.PolicyMerge, tiers[0].Policy)
}

func TestBuildTiers_OptionalTiers(t *testing.T) {
	logger := zerolog.Nop()

	config := defaultConfig()
	config.Reddit.Subreddits = nil
	config.Mastodon = mastodon.Config{
		InstanceURL: "https://mastodon.social",
		Tags:        []string{"doom", "retrogaming"},
	}
	config.RSS = rss.Config{
		FeedURLs: []string{"https://doom.example.com/feed.xml"},
	}

	tiers, err := BuildTiers(config, gallery.PolicyRoundRobin, &logger)
	require.NoError(t, err)

	assert.Equal(t, []string{TierCommons, TierWikipedia, TierMastodon, TierRSS}, tierNames(tiers))
	assert.Len(t, tiers[2].Feeds, 2)
	assert.Equal(t, gallery.PolicyRoundRobin, tiers[2].Policy)
}
