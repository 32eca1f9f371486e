package reddit

import (
	"context"
	"fmt"

	"github.com/defeedco/doomscroll/pkg/gallery"
	"github.com/defeedco/doomscroll/pkg/lib"
	"github.com/rs/zerolog"
	"github.com/vartanbeno/go-reddit/v2/reddit"
)

const TypeRedditSubreddit = "redditsubreddit"

// maxListingLimit is the largest page reddit serves for a listing.
const maxListingLimit = 100

// postLister is the part of *reddit.SubredditService the feed uses.
type postLister interface {
	HotPosts(ctx context.Context, subreddit string, opts *reddit.ListOptions) ([]*reddit.Post, *reddit.Response, error)
	NewPosts(ctx context.Context, subreddit string, opts *reddit.ListOptions) ([]*reddit.Post, *reddit.Response, error)
	TopPosts(ctx context.Context, subreddit string, opts *reddit.ListPostOptions) ([]*reddit.Post, *reddit.Response, error)
	RisingPosts(ctx context.Context, subreddit string, opts *reddit.ListOptions) ([]*reddit.Post, *reddit.Response, error)
}

// FeedSubreddit pages through the image posts of one subreddit.
// The cursor is the listing's after anchor.
type FeedSubreddit struct {
	Subreddit string
	SortBy    string
	TopPeriod string

	posts  postLister
	logger *zerolog.Logger
}

func NewFeedSubreddit(posts postLister, subreddit string, sortBy string, topPeriod string, logger *zerolog.Logger) *FeedSubreddit {
	f := &FeedSubreddit{
		Subreddit: subreddit,
		SortBy:    sortBy,
		TopPeriod: topPeriod,
		posts:     posts,
	}

	feedLogger := logger.With().
		Str("feed_uid", f.UID().String()).
		Str("feed_type", TypeRedditSubreddit).
		Logger()
	f.logger = &feedLogger

	return f
}

// NewClient returns an authenticated client when credentials are set, otherwise a read-only one.
func NewClient(config *Config) (*reddit.Client, error) {
	var client *reddit.Client
	var err error

	if config.ClientID != "" && config.ClientSecret != "" {
		client, err = reddit.NewClient(reddit.Credentials{
			ID:     config.ClientID,
			Secret: config.ClientSecret,
		}, reddit.WithUserAgent(lib.UserAgentString))
	} else {
		client, err = reddit.NewReadonlyClient(reddit.WithUserAgent(lib.UserAgentString))
	}

	if err != nil {
		return nil, fmt.Errorf("create reddit client: %w", err)
	}

	return client, nil
}

func (f *FeedSubreddit) UID() lib.TypedUID {
	return lib.NewTypedUID(TypeRedditSubreddit, f.Subreddit, f.SortBy)
}

func (f *FeedSubreddit) URL() string {
	return fmt.Sprintf("https://reddit.com/r/%s/%s", f.Subreddit, f.SortBy)
}

func (f *FeedSubreddit) FetchPage(ctx context.Context, req gallery.PageRequest) gallery.PageResult {
	page, err := f.fetchPage(ctx, req)
	return gallery.Collapse(f.logger, req, page, err)
}

func (f *FeedSubreddit) fetchPage(ctx context.Context, req gallery.PageRequest) (gallery.Page, error) {
	opts := &reddit.ListOptions{
		Limit: min(max(req.Count, 1), maxListingLimit),
		After: string(req.Cursor),
	}

	posts, resp, err := f.fetchByCurrentTimeline(ctx, opts)
	if err != nil {
		return gallery.Page{}, fmt.Errorf("fetch posts: %w", err)
	}

	// The listing carries no after anchor once its last post has been served.
	page := gallery.Page{
		Next: req.Cursor,
		Done: true,
	}
	if resp != nil && resp.After != "" {
		page.Next = gallery.Cursor(resp.After)
		page.Done = false
	}

	f.logger.Debug().
		Str("after", opts.After).
		Str("next", string(page.Next)).
		Int("count", len(posts)).
		Msg("Fetched posts")

	for _, post := range posts {
		if post == nil {
			continue
		}
		if url, ok := imageURL(post); ok {
			page.Images = append(page.Images, gallery.ImageResult(url))
		}
	}

	return page, nil
}

func imageURL(post *reddit.Post) (string, bool) {
	// Skip pinned posts
	if post.Stickied {
		return "", false
	}
	// Skip NSFW posts to avoid misuse or legal issues
	if post.NSFW {
		return "", false
	}
	// Self posts link back to reddit.com, never to an image.
	if post.IsSelfPost || post.URL == "" {
		return "", false
	}
	if !gallery.IsImageURL(post.URL) {
		return "", false
	}
	return post.URL, true
}

func (f *FeedSubreddit) fetchByCurrentTimeline(ctx context.Context, opts *reddit.ListOptions) ([]*reddit.Post, *reddit.Response, error) {
	switch f.SortBy {
	case "hot":
		return f.posts.HotPosts(ctx, f.Subreddit, opts)
	case "new":
		return f.posts.NewPosts(ctx, f.Subreddit, opts)
	case "top":
		topOpts := &reddit.ListPostOptions{
			ListOptions: *opts,
			Time:        f.TopPeriod,
		}
		return f.posts.TopPosts(ctx, f.Subreddit, topOpts)
	case "rising":
		return f.posts.RisingPosts(ctx, f.Subreddit, opts)
	}

	return nil, nil, fmt.Errorf("invalid sort by: %s", f.SortBy)
}
