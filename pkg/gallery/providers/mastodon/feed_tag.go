package mastodon

import (
	"context"
	"fmt"

	"github.com/defeedco/doomscroll/pkg/gallery"
	"github.com/defeedco/doomscroll/pkg/lib"
	"github.com/mattn/go-mastodon"
	"github.com/rs/zerolog"
)

const TypeMastodonTag = "mastodontag"

// maxTimelineLimit is the largest page a Mastodon timeline serves.
const maxTimelineLimit = 40

type timelineClient interface {
	GetTimelineHashtag(ctx context.Context, tag string, isLocal bool, pg *mastodon.Pagination) ([]*mastodon.Status, error)
}

// FeedTag pages backwards through the image attachments of a hashtag timeline.
// The cursor is the ID of the oldest status seen so far.
type FeedTag struct {
	InstanceURL string
	Tag         string

	client timelineClient
	logger *zerolog.Logger
}

func NewClient(instanceURL string) *mastodon.Client {
	return mastodon.NewClient(&mastodon.Config{
		Server: instanceURL,
	})
}

func NewFeedTag(client timelineClient, instanceURL string, tag string, logger *zerolog.Logger) *FeedTag {
	f := &FeedTag{
		InstanceURL: instanceURL,
		Tag:         tag,
		client:      client,
	}

	feedLogger := logger.With().
		Str("feed_uid", f.UID().String()).
		Str("feed_type", TypeMastodonTag).
		Logger()
	f.logger = &feedLogger

	return f
}

func (f *FeedTag) UID() lib.TypedUID {
	return lib.NewTypedUID(TypeMastodonTag, lib.StripURL(f.InstanceURL), f.Tag)
}

func (f *FeedTag) URL() string {
	return fmt.Sprintf("%s/tags/%s", f.InstanceURL, f.Tag)
}

func (f *FeedTag) FetchPage(ctx context.Context, req gallery.PageRequest) gallery.PageResult {
	page, err := f.fetchPage(ctx, req)
	return gallery.Collapse(f.logger, req, page, err)
}

func (f *FeedTag) fetchPage(ctx context.Context, req gallery.PageRequest) (gallery.Page, error) {
	pg := &mastodon.Pagination{
		Limit: int64(min(max(req.Count, 1), maxTimelineLimit)),
		MaxID: mastodon.ID(req.Cursor),
	}

	statuses, err := f.client.GetTimelineHashtag(ctx, f.Tag, false, pg)
	if err != nil {
		return gallery.Page{}, fmt.Errorf("get hashtag timeline: %w", err)
	}

	f.logger.Debug().
		Str("max_id", string(req.Cursor)).
		Int("count", len(statuses)).
		Msg("Fetched hashtag timeline")

	// An empty page past the oldest status means the timeline is exhausted.
	if len(statuses) == 0 {
		return gallery.Page{Next: req.Cursor, Done: req.Cursor != ""}, nil
	}

	var images []gallery.ImageResult
	for _, status := range statuses {
		images = append(images, statusImages(status)...)
	}

	next := req.Cursor
	if last := statuses[len(statuses)-1]; last != nil && last.ID != "" {
		next = gallery.Cursor(last.ID)
	}

	return gallery.Page{
		Images: images,
		Next:   next,
	}, nil
}

func statusImages(status *mastodon.Status) []gallery.ImageResult {
	if status == nil {
		return nil
	}
	if status.Reblog != nil {
		status = status.Reblog
	}
	// Skip sensitive posts to avoid misuse or legal issues
	if status.Sensitive {
		return nil
	}

	var images []gallery.ImageResult
	for _, attachment := range status.MediaAttachments {
		if attachment.Type != "image" {
			continue
		}
		url := attachment.URL
		if !gallery.IsImageURL(url) {
			url = attachment.PreviewURL
		}
		images = append(images, gallery.ImageResult(url))
	}
	return images
}
