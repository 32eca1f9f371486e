package wikipedia

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/defeedco/doomscroll/pkg/gallery"
	"github.com/defeedco/doomscroll/pkg/gallery/providers/mediawiki"
	"github.com/defeedco/doomscroll/pkg/lib"
	"github.com/rs/zerolog"
)

const TypeWikipediaArticle = "wikipediaarticle"

const (
	maxImagesLimit         = 500
	defaultResolveWorkers  = 8
	resolvedTitlesCacheTTL = 6 * time.Hour
)

// FeedArticle pages through the files used on an encyclopedia article.
// Listing a page of file titles and resolving each title to a URL are separate requests;
// titles are resolved concurrently and a failed resolution drops only that title.
// The cursor is the imcontinue continuation value.
type FeedArticle struct {
	Article string

	client         *mediawiki.Client
	resolveWorkers int
	resolved       *lib.Cache
	logger         *zerolog.Logger
}

func NewFeedArticle(client *mediawiki.Client, article string, resolveWorkers int, logger *zerolog.Logger) *FeedArticle {
	if resolveWorkers <= 0 {
		resolveWorkers = defaultResolveWorkers
	}

	f := &FeedArticle{
		Article:        article,
		client:         client,
		resolveWorkers: resolveWorkers,
	}

	feedLogger := logger.With().
		Str("feed_uid", f.UID().String()).
		Str("feed_type", TypeWikipediaArticle).
		Logger()
	f.logger = &feedLogger
	f.resolved = lib.NewCache(resolvedTitlesCacheTTL, &feedLogger)

	return f
}

func (f *FeedArticle) UID() lib.TypedUID {
	return lib.NewTypedUID(TypeWikipediaArticle, lib.StripURL(f.client.APIURL()), f.Article)
}

func (f *FeedArticle) FetchPage(ctx context.Context, req gallery.PageRequest) gallery.PageResult {
	page, err := f.fetchPage(ctx, req)
	return gallery.Collapse(f.logger, req, page, err)
}

func (f *FeedArticle) fetchPage(ctx context.Context, req gallery.PageRequest) (gallery.Page, error) {
	limit := min(max(req.Count, 1), maxImagesLimit)

	resp, err := f.client.PageImages(ctx, f.Article, limit, string(req.Cursor))
	if err != nil {
		return gallery.Page{}, fmt.Errorf("list page images: %w", err)
	}

	page := gallery.Page{
		Next: req.Cursor,
		Done: true,
	}
	if resp.Continue != nil && resp.Continue.IMContinue != "" {
		page.Next = gallery.Cursor(resp.Continue.IMContinue)
		page.Done = false
	}

	if resp.Query == nil {
		return page, nil
	}

	var titles []string
	for _, p := range resp.Query.Pages {
		if p == nil {
			continue
		}
		if p.Missing {
			return gallery.Page{}, fmt.Errorf("%w: article %q does not exist", gallery.ErrMalformedResponse, f.Article)
		}
		for _, img := range p.Images {
			if img != nil && img.Title != "" {
				titles = append(titles, img.Title)
			}
		}
	}

	page.Images = f.resolveTitles(ctx, titles)

	f.logger.Debug().
		Str("imcontinue", string(req.Cursor)).
		Int("titles", len(titles)).
		Int("images", len(page.Images)).
		Msg("Fetched article images")

	return page, nil
}

// resolveTitles returns the image URLs of the given titles in title order.
// Titles that fail to resolve are left out.
func (f *FeedArticle) resolveTitles(ctx context.Context, titles []string) []gallery.ImageResult {
	urls := make([]string, len(titles))

	pool := pond.NewPool(f.resolveWorkers)

	for i, title := range titles {
		if cached, ok := f.resolved.Get(title); ok {
			urls[i] = cached.(string)
			continue
		}

		pool.Submit(func() {
			url, err := f.resolveTitle(ctx, title)
			if err != nil {
				f.logger.Debug().
					Err(err).
					Str("title", title).
					Msg("Failed to resolve image title")
				return
			}
			urls[i] = url
		})
	}

	pool.StopAndWait()

	images := make([]gallery.ImageResult, 0, len(urls))
	for _, url := range urls {
		if url != "" {
			images = append(images, gallery.ImageResult(url))
		}
	}
	return images
}

func (f *FeedArticle) resolveTitle(ctx context.Context, title string) (string, error) {
	info, err := f.client.ImageInfo(ctx, title)
	if err != nil {
		return "", fmt.Errorf("fetch image info: %w", err)
	}

	// Non-image files (svg, ogg, pdf) resolve to an empty URL so they aren't looked up again.
	url := info.URL
	if info.MIME != "" && !gallery.IsImageMIME(info.MIME) {
		url = ""
	}

	f.resolved.Set(title, url)

	return url, nil
}
