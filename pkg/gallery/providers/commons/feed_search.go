package commons

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/defeedco/doomscroll/pkg/gallery"
	"github.com/defeedco/doomscroll/pkg/gallery/providers/mediawiki"
	"github.com/defeedco/doomscroll/pkg/lib"
	"github.com/rs/zerolog"
)

const TypeCommonsSearch = "commonssearch"

// maxSearchLimit is the gsrlimit cap for anonymous clients.
const maxSearchLimit = 50

// FeedSearch pages through the File: search results of a media repository.
// The cursor is the gsroffset continuation value.
type FeedSearch struct {
	Search string

	client *mediawiki.Client
	logger *zerolog.Logger
}

func NewFeedSearch(client *mediawiki.Client, search string, logger *zerolog.Logger) *FeedSearch {
	f := &FeedSearch{
		Search: search,
		client: client,
	}

	feedLogger := logger.With().
		Str("feed_uid", f.UID().String()).
		Str("feed_type", TypeCommonsSearch).
		Logger()
	f.logger = &feedLogger

	return f
}

func (f *FeedSearch) UID() lib.TypedUID {
	return lib.NewTypedUID(TypeCommonsSearch, lib.StripURL(f.client.APIURL()), f.Search)
}

func (f *FeedSearch) FetchPage(ctx context.Context, req gallery.PageRequest) gallery.PageResult {
	page, err := f.fetchPage(ctx, req)
	return gallery.Collapse(f.logger, req, page, err)
}

func (f *FeedSearch) fetchPage(ctx context.Context, req gallery.PageRequest) (gallery.Page, error) {
	limit := min(max(req.Count, 1), maxSearchLimit)

	resp, err := f.client.SearchFiles(ctx, f.Search, limit, string(req.Cursor))
	if err != nil {
		return gallery.Page{}, fmt.Errorf("search files: %w", err)
	}

	page := gallery.Page{
		Next: req.Cursor,
		Done: true,
	}
	if resp.Continue != nil && resp.Continue.GSROffset != nil {
		page.Next = gallery.Cursor(strconv.Itoa(*resp.Continue.GSROffset))
		page.Done = false
	}

	// No matches, or a page past the end of the results.
	if resp.Query == nil {
		return page, nil
	}

	pages := make([]*mediawiki.Page, 0, len(resp.Query.Pages))
	for _, p := range resp.Query.Pages {
		if p != nil {
			pages = append(pages, p)
		}
	}
	// Generator results don't come back in search order.
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Index < pages[j].Index
	})

	for _, p := range pages {
		info, ok := p.FirstImageInfo()
		if !ok {
			continue
		}
		if info.MIME != "" && !gallery.IsImageMIME(info.MIME) {
			continue
		}
		page.Images = append(page.Images, gallery.ImageResult(info.URL))
	}

	f.logger.Debug().
		Str("offset", string(req.Cursor)).
		Int("results", len(pages)).
		Int("images", len(page.Images)).
		Msg("Fetched search results")

	return page, nil
}
