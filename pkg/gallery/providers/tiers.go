package providers

import (
	"fmt"

	"github.com/defeedco/doomscroll/pkg/gallery"
	"github.com/defeedco/doomscroll/pkg/gallery/providers/commons"
	"github.com/defeedco/doomscroll/pkg/gallery/providers/mastodon"
	"github.com/defeedco/doomscroll/pkg/gallery/providers/mediawiki"
	"github.com/defeedco/doomscroll/pkg/gallery/providers/reddit"
	"github.com/defeedco/doomscroll/pkg/gallery/providers/rss"
	"github.com/defeedco/doomscroll/pkg/gallery/providers/wikipedia"
	"github.com/defeedco/doomscroll/pkg/lib"
	"github.com/rs/zerolog"
)

const (
	TierReddit    = "reddit"
	TierCommons   = "commons"
	TierWikipedia = "wikipedia"
	TierMastodon  = "mastodon"
	TierRSS       = "rss"
)

type Config struct {
	Reddit    reddit.Config    `env:""`
	Commons   commons.Config   `env:""`
	Wikipedia wikipedia.Config `env:""`
	Mastodon  mastodon.Config  `env:""`
	RSS       rss.Config       `env:""`
}

// BuildTiers returns the gallery tiers in priority order:
// subreddits, media repository search, encyclopedia articles,
// then the optional hashtag and RSS tiers.
// Tiers without feeds are left out.
func BuildTiers(config *Config, policy gallery.PartitionPolicy, logger *zerolog.Logger) ([]gallery.Tier, error) {
	var tiers []gallery.Tier

	add := func(name string, feeds []gallery.Feed) {
		if len(feeds) == 0 {
			logger.Debug().Str("tier", name).Msg("Tier disabled, no feeds configured")
			return
		}
		tiers = append(tiers, gallery.NewTier(name, policy, feeds...))
	}

	redditFeeds, err := redditFeeds(&config.Reddit, logger)
	if err != nil {
		return nil, err
	}
	add(TierReddit, redditFeeds)

	commonsClient := mediawiki.NewClient(config.Commons.APIURL, lib.DefaultHTTPClient)
	add(TierCommons, []gallery.Feed{
		commons.NewFeedSearch(commonsClient, config.Commons.Search, logger),
	})

	wikipediaClient := mediawiki.NewClient(config.Wikipedia.APIURL, lib.DefaultHTTPClient)
	var wikipediaFeeds []gallery.Feed
	for _, article := range config.Wikipedia.Articles {
		wikipediaFeeds = append(wikipediaFeeds, wikipedia.NewFeedArticle(wikipediaClient, article, config.Wikipedia.ResolveConcurrency, logger))
	}
	add(TierWikipedia, wikipediaFeeds)

	if config.Mastodon.InstanceURL != "" {
		mastodonClient := mastodon.NewClient(config.Mastodon.InstanceURL)
		var mastodonFeeds []gallery.Feed
		for _, tag := range config.Mastodon.Tags {
			mastodonFeeds = append(mastodonFeeds, mastodon.NewFeedTag(mastodonClient, config.Mastodon.InstanceURL, tag, logger))
		}
		add(TierMastodon, mastodonFeeds)
	}

	var rssFeeds []gallery.Feed
	for _, feedURL := range config.RSS.FeedURLs {
		rssFeeds = append(rssFeeds, rss.NewFeed(feedURL, lib.DefaultHTTPClient, logger))
	}
	add(TierRSS, rssFeeds)

	for _, tier := range tiers {
		logger.Info().
			Str("tier", tier.Name).
			Int("feeds", len(tier.Feeds)).
			Str("policy", string(tier.Policy)).
			Msg("Configured tier")
	}

	return tiers, nil
}

func redditFeeds(config *reddit.Config, logger *zerolog.Logger) ([]gallery.Feed, error) {
	if len(config.Subreddits) == 0 {
		return nil, nil
	}

	client, err := reddit.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("build reddit tier: %w", err)
	}

	feeds := make([]gallery.Feed, 0, len(config.Subreddits))
	for _, subreddit := range config.Subreddits {
		feeds = append(feeds, reddit.NewFeedSubreddit(client.Subreddit, subreddit, config.SortBy, config.TopPeriod, logger))
	}
	return feeds, nil
}
