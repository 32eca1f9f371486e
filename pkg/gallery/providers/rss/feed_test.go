package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/defeedco/doomscroll/pkg/gallery"
	"github.com/rs/zerolog"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Doom screenshots</title>
    <link>https://doom.example.com/</link>
    <item>
      <title>E1M1</title>
      <link>https://doom.example.com/posts/e1m1</link>
      <guid>e1m1</guid>
      <enclosure url="https://doom.example.com/img/e1m1.png" length="1024" type="image/png"/>
      <enclosure url="https://doom.example.com/audio/e1m1.mp3" length="2048" type="audio/mpeg"/>
    </item>
    <item>
      <title>Cacodemon</title>
      <link>https://doom.example.com/posts/cacodemon</link>
      <guid>cacodemon</guid>
      <media:content url="https://doom.example.com/img/cacodemon.jpg" medium="image"/>
    </item>
    <item>
      <title>Mod roundup</title>
      <link>https://doom.example.com/posts/mods</link>
      <guid>mods</guid>
      <description><![CDATA[<p>New wads</p><img src="/img/brutal.gif"><img src="https://cdn.example.com/sigil.jpg">]]></description>
    </item>
  </channel>
</rss>`

func newTestFeed(t *testing.T, handler http.HandlerFunc) *Feed {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := zerolog.Nop()
	return NewFeed(server.URL+"/feed.xml", server.Client(), &logger)
}

func serve(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}
}

func TestFeed_FetchPage(t *testing.T) {
	feed := newTestFeed(t, serve(testFeed))

	tests := []struct {
		name     string
		cursor   gallery.Cursor
		count    int
		want     []gallery.ImageResult
		wantNext gallery.Cursor
		wantDone bool
	}{
		{
			name:     "first page",
			count:    2,
			want:     []gallery.ImageResult{"https://doom.example.com/img/e1m1.png", "https://doom.example.com/img/cacodemon.jpg"},
			wantNext: "2",
		},
		{
			name:     "last page resolves relative body images",
			cursor:   "2",
			count:    2,
			want:     []gallery.ImageResult{"https://doom.example.com/img/brutal.gif", "https://cdn.example.com/sigil.jpg"},
			wantNext: "3",
			wantDone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feed.FetchPage(context.Background(), gallery.PageRequest{Cursor: tt.cursor, Count: tt.count})

			if got.Outcome != gallery.OutcomeOK {
				t.Fatalf("expected ok outcome, got %s (%v)", got.Outcome, got.Err)
			}
			if len(got.Images) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got.Images)
			}
			for i := range tt.want {
				if got.Images[i] != tt.want[i] {
					t.Errorf("image %d: expected %s, got %s", i, tt.want[i], got.Images[i])
				}
			}
			if got.Next != tt.wantNext {
				t.Errorf("expected next cursor %q, got %q", tt.wantNext, got.Next)
			}
			if got.Done != tt.wantDone {
				t.Errorf("expected done=%v, got %v", tt.wantDone, got.Done)
			}
		})
	}
}

func TestFeed_EdgeCases(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		cursor      gallery.Cursor
		wantOutcome gallery.Outcome
		wantDone    bool
	}{
		{
			name:        "offset past the end",
			handler:     serve(testFeed),
			cursor:      "3",
			wantOutcome: gallery.OutcomeEmpty,
			wantDone:    true,
		},
		{
			name:        "not a feed",
			handler:     serve(`<html><body>hello</body></html>`),
			wantOutcome: gallery.OutcomeMalformed,
		},
		{
			name:        "invalid cursor",
			handler:     serve(testFeed),
			cursor:      "abc",
			wantOutcome: gallery.OutcomeMalformed,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "gone", http.StatusGone)
			},
			wantOutcome: gallery.OutcomeNetworkFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := newTestFeed(t, tt.handler)
			got := feed.FetchPage(context.Background(), gallery.PageRequest{Cursor: tt.cursor, Count: 5})

			if got.Outcome != tt.wantOutcome {
				t.Errorf("expected outcome %s, got %s (%v)", tt.wantOutcome, got.Outcome, got.Err)
			}
			if len(got.Images) != 0 {
				t.Errorf("expected no images, got %v", got.Images)
			}
			if got.Next != tt.cursor {
				t.Errorf("expected cursor %q to be kept, got %q", tt.cursor, got.Next)
			}
			if got.Done != tt.wantDone {
				t.Errorf("expected done=%v, got %v", tt.wantDone, got.Done)
			}
		})
	}
}
