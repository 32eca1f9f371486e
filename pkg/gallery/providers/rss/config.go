package rss

type Config struct {
	// FeedURLs enables the RSS tier when non-empty.
	FeedURLs []string `env:"RSS_FEED_URLS" validate:"dive,url"`
}
