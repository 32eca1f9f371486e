package rss

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/defeedco/doomscroll/pkg/gallery"
	"github.com/defeedco/doomscroll/pkg/lib"
	"github.com/mmcdole/gofeed"
	gofeedext "github.com/mmcdole/gofeed/extensions"
	"github.com/rs/zerolog"
)

const TypeRSSFeed = "rssfeed"

// Feed pages through the images attached to or embedded in the items of an RSS or Atom feed.
// Feeds aren't paginated upstream, so the cursor is the offset of the next unread item.
type Feed struct {
	FeedURL string

	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewFeed(feedURL string, httpClient *http.Client, logger *zerolog.Logger) *Feed {
	if httpClient == nil {
		httpClient = lib.DefaultHTTPClient
	}

	f := &Feed{
		FeedURL:    feedURL,
		httpClient: httpClient,
	}

	feedLogger := logger.With().
		Str("feed_uid", f.UID().String()).
		Str("feed_type", TypeRSSFeed).
		Logger()
	f.logger = &feedLogger

	return f
}

func (f *Feed) UID() lib.TypedUID {
	return lib.NewTypedUID(TypeRSSFeed, lib.StripURL(f.FeedURL))
}

func (f *Feed) FetchPage(ctx context.Context, req gallery.PageRequest) gallery.PageResult {
	page, err := f.fetchPage(ctx, req)
	return gallery.Collapse(f.logger, req, page, err)
}

func (f *Feed) fetchPage(ctx context.Context, req gallery.PageRequest) (gallery.Page, error) {
	offset := 0
	if req.Cursor != "" {
		var err error
		offset, err = strconv.Atoi(string(req.Cursor))
		if err != nil || offset < 0 {
			return gallery.Page{}, fmt.Errorf("%w: invalid item offset %q", gallery.ErrMalformedResponse, req.Cursor)
		}
	}

	parser := gofeed.NewParser()
	parser.UserAgent = lib.UserAgentString
	parser.Client = f.httpClient

	rssFeed, err := parser.ParseURLWithContext(f.FeedURL, ctx)
	if err != nil {
		return gallery.Page{}, classifyParseError(err)
	}
	if rssFeed == nil {
		return gallery.Page{}, fmt.Errorf("%w: feed is nil", gallery.ErrMalformedResponse)
	}

	items := rssFeed.Items
	if offset >= len(items) {
		return gallery.Page{Next: req.Cursor, Done: true}, nil
	}

	end := min(offset+max(req.Count, 1), len(items))

	var images []gallery.ImageResult
	for _, item := range items[offset:end] {
		images = append(images, f.itemImages(item)...)
	}

	f.logger.Debug().
		Int("offset", offset).
		Int("items", end-offset).
		Int("images", len(images)).
		Msg("Parsed feed items")

	return gallery.Page{
		Images: images,
		Next:   gallery.Cursor(strconv.Itoa(end)),
		Done:   end == len(items),
	}, nil
}

// classifyParseError marks errors raised while parsing the document as malformed.
// Transport failures and non-2xx responses are returned as is.
func classifyParseError(err error) error {
	var httpErr gofeed.HTTPError
	var urlErr *url.Error
	if errors.As(err, &httpErr) || errors.As(err, &urlErr) {
		return fmt.Errorf("fetch feed: %w", err)
	}
	return fmt.Errorf("%w: parse feed: %w", gallery.ErrMalformedResponse, err)
}

// itemImages collects image URLs from the item image, enclosures,
// Media RSS extensions and <img> tags in the item body, in that order.
func (f *Feed) itemImages(item *gofeed.Item) []gallery.ImageResult {
	if item == nil {
		return nil
	}

	base := f.FeedURL
	if item.Link != "" {
		base = lib.ResolveURL(f.FeedURL, item.Link)
	}

	var urls []string

	if item.Image != nil {
		urls = append(urls, item.Image.URL)
	}

	for _, enclosure := range item.Enclosures {
		if enclosure == nil {
			continue
		}
		if enclosure.Type != "" && !gallery.IsImageMIME(enclosure.Type) {
			continue
		}
		urls = append(urls, enclosure.URL)
	}

	urls = append(urls, mediaURLs(item.Extensions)...)

	body := item.Content
	if body == "" {
		body = item.Description
	}
	bodyURLs, err := htmlImageURLs(body)
	if err != nil {
		f.logger.Debug().Err(err).Str("item", item.GUID).Msg("Failed to parse item body")
	}
	urls = append(urls, bodyURLs...)

	images := make([]gallery.ImageResult, 0, len(urls))
	for _, u := range urls {
		if resolved := lib.ResolveURL(base, u); resolved != "" {
			images = append(images, gallery.ImageResult(resolved))
		}
	}
	return images
}

func mediaURLs(extensions gofeedext.Extensions) []string {
	media, ok := extensions["media"]
	if !ok {
		return nil
	}

	var urls []string
	var collect func(exts []gofeedext.Extension)
	collect = func(exts []gofeedext.Extension) {
		for _, ext := range exts {
			if ext.Name == "content" || ext.Name == "thumbnail" {
				medium := ext.Attrs["medium"]
				mimeType := ext.Attrs["type"]
				isImage := medium == "image" || gallery.IsImageMIME(mimeType) || (medium == "" && mimeType == "")
				if src := ext.Attrs["url"]; src != "" && isImage {
					urls = append(urls, src)
				}
			}
			for _, children := range ext.Children {
				collect(children)
			}
		}
	}

	// media:group nests media:content elements.
	for _, name := range []string{"content", "group", "thumbnail"} {
		collect(media[name])
	}

	return urls
}

func htmlImageURLs(body string) ([]string, error) {
	if !strings.Contains(body, "<img") {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var urls []string
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			urls = append(urls, src)
		}
	})

	return urls, nil
}
