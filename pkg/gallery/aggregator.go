package gallery

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrFetchInProgress is returned when Fetch is called while another fetch on the
	// same aggregator hasn't returned yet. The call has no side effects.
	ErrFetchInProgress = errors.New("fetch already in progress")
	ErrInvalidCount    = errors.New("count must be positive")
)

const DefaultProviderTimeout = 8 * time.Second

type Request struct {
	Count int
	// Page selects the fallback window explicitly.
	// When nil, the aggregator uses its own page index and advances it after non-empty batches.
	Page *int
}

type Batch struct {
	Images []ImageResult
	// Tier is the name of the tier that produced Images, empty for fallback batches.
	Tier     string
	Fallback bool
	// Page is the page index the batch was fetched for.
	Page int
	// Exhausted is set when every tier and the fallback window came back empty.
	Exhausted bool
}

// Aggregator queries tiers in priority order and returns the first non-empty result,
// falling back to a window of the static list.
//
// An Aggregator holds the cursor state of one gallery session.
// Fetch calls must not overlap; an overlapping call returns ErrFetchInProgress.
type Aggregator struct {
	tiers    []Tier
	fallback *StaticFallback
	logger   *zerolog.Logger
	timeout  time.Duration

	fetching atomic.Bool

	// Owned by the goroutine holding the fetching flag.
	cursors  map[string]Cursor
	done     map[string]bool
	rotation map[string]int
	page     int
}

type Option func(*Aggregator)

// WithProviderTimeout bounds every single feed call.
// A non-positive value disables the deadline.
func WithProviderTimeout(timeout time.Duration) Option {
	return func(a *Aggregator) {
		a.timeout = timeout
	}
}

func WithStartPage(page int) Option {
	return func(a *Aggregator) {
		a.page = page
	}
}

func NewAggregator(tiers []Tier, fallback *StaticFallback, logger *zerolog.Logger, opts ...Option) *Aggregator {
	if fallback == nil {
		fallback = NewStaticFallback(nil)
	}

	a := &Aggregator{
		tiers:    tiers,
		fallback: fallback,
		logger:   logger,
		timeout:  DefaultProviderTimeout,
		cursors:  make(map[string]Cursor),
		done:     make(map[string]bool),
		rotation: make(map[string]int),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Fetch runs one aggregation attempt.
// Upstream failures never surface as errors: the only errors are ErrInvalidCount and ErrFetchInProgress.
func (a *Aggregator) Fetch(ctx context.Context, req Request) (*Batch, error) {
	if req.Count <= 0 {
		return nil, ErrInvalidCount
	}

	if !a.fetching.CompareAndSwap(false, true) {
		return nil, ErrFetchInProgress
	}
	defer a.fetching.Store(false)

	page := a.page
	if req.Page != nil {
		page = *req.Page
	}

	batch := a.fetch(ctx, req.Count, page)

	if req.Page == nil && len(batch.Images) > 0 {
		a.page++
	}

	return batch, nil
}

func (a *Aggregator) fetch(ctx context.Context, count int, page int) *Batch {
	for _, tier := range a.tiers {
		images := a.fetchTier(ctx, tier, count)
		if len(images) == 0 {
			a.logger.Debug().
				Str("tier", tier.Name).
				Msg("Tier returned no images")
			continue
		}

		a.logger.Debug().
			Str("tier", tier.Name).
			Int("count", len(images)).
			Int("page", page).
			Msg("Tier returned images")

		return &Batch{
			Images: images,
			Tier:   tier.Name,
			Page:   page,
		}
	}

	images := a.fallback.Window(page, count)

	a.logger.Debug().
		Int("page", page).
		Int("count", len(images)).
		Msg("All tiers empty, using static fallback")

	return &Batch{
		Images:    images,
		Fallback:  true,
		Page:      page,
		Exhausted: len(images) == 0,
	}
}

func (a *Aggregator) fetchTier(ctx context.Context, tier Tier, count int) []ImageResult {
	feeds := a.activeFeeds(tier)
	if len(feeds) == 0 {
		return nil
	}

	if tier.Policy == PolicyRoundRobin {
		i := a.rotation[tier.Name] % len(feeds)
		a.rotation[tier.Name] = i + 1
		feeds = feeds[i : i+1]
	}

	results := make([]PageResult, len(feeds))

	var g errgroup.Group
	for i, feed := range feeds {
		req := PageRequest{
			Cursor: a.cursors[feed.UID().String()],
			Count:  count,
		}
		g.Go(func() error {
			results[i] = a.fetchFeed(ctx, feed, req)
			return nil
		})
	}
	// Feeds report failures through PageResult, so Wait never returns an error.
	_ = g.Wait()

	images := make([]ImageResult, 0)
	for i, feed := range feeds {
		result := results[i]
		uid := feed.UID().String()

		if result.Outcome.Successful() {
			a.cursors[uid] = result.Next
			if result.Done {
				a.done[uid] = true
			}
		}

		images = append(images, result.Images...)
	}

	return Dedupe(images)
}

func (a *Aggregator) fetchFeed(ctx context.Context, feed Feed, req PageRequest) PageResult {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	started := time.Now()
	result := feed.FetchPage(ctx, req)

	if !result.Outcome.Successful() {
		// A feed that ignored the outcome contract must not move its cursor.
		result.Images = nil
		result.Next = req.Cursor
		result.Done = false
	}

	a.logger.Debug().
		Err(result.Err).
		Str("feed_uid", feed.UID().String()).
		Str("cursor", string(req.Cursor)).
		Stringer("outcome", result.Outcome).
		Int("images", len(result.Images)).
		Dur("took", time.Since(started)).
		Msg("Fetched feed page")

	return result
}

func (a *Aggregator) activeFeeds(tier Tier) []Feed {
	feeds := make([]Feed, 0, len(tier.Feeds))
	for _, feed := range tier.Feeds {
		if a.done[feed.UID().String()] {
			continue
		}
		feeds = append(feeds, feed)
	}
	return feeds
}
