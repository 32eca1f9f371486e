package commons

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/defeedco/doomscroll/pkg/gallery"
	"github.com/defeedco/doomscroll/pkg/gallery/providers/mediawiki"
	"github.com/rs/zerolog"
)

func newTestFeed(t *testing.T, handler http.HandlerFunc) *FeedSearch {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := zerolog.Nop()
	client := mediawiki.NewClient(server.URL, server.Client())
	return NewFeedSearch(client, "doom game", &logger)
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestFeedSearch_FetchPage(t *testing.T) {
	queries := make(chan url.Values, 1)
	feed := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query()
		respond(`{
			"batchcomplete": true,
			"continue": {"gsroffset": 20, "continue": "gsroffset||"},
			"query": {"pages": [
				{"pageid": 3, "ns": 6, "title": "File:E1M1.png", "index": 2,
				 "imageinfo": [{"url": "https://upload.wikimedia.org/e/e1m1.png", "mime": "image/png"}]},
				{"pageid": 1, "ns": 6, "title": "File:Doom cover.jpg", "index": 1,
				 "imageinfo": [{"url": "https://upload.wikimedia.org/d/doom.jpg", "mime": "image/jpeg"}]},
				{"pageid": 2, "ns": 6, "title": "File:Doom manual.pdf", "index": 3,
				 "imageinfo": [{"url": "https://upload.wikimedia.org/d/manual.pdf", "mime": "application/pdf"}]},
				{"pageid": 4, "ns": 6, "title": "File:Broken.png", "index": 4}
			]}
		}`)(w, r)
	})

	got := feed.FetchPage(context.Background(), gallery.PageRequest{Cursor: "10", Count: 10})

	if got.Outcome != gallery.OutcomeOK {
		t.Fatalf("expected ok outcome, got %s (%v)", got.Outcome, got.Err)
	}

	want := []gallery.ImageResult{
		"https://upload.wikimedia.org/d/doom.jpg",
		"https://upload.wikimedia.org/e/e1m1.png",
	}
	if len(got.Images) != len(want) {
		t.Fatalf("expected %v, got %v", want, got.Images)
	}
	for i := range want {
		if got.Images[i] != want[i] {
			t.Errorf("image %d: expected %s, got %s", i, want[i], got.Images[i])
		}
	}
	if got.Next != "20" || got.Done {
		t.Errorf("expected next cursor 20 and not done, got %q done=%v", got.Next, got.Done)
	}

	query := <-queries
	checks := map[string]string{
		"action":       "query",
		"generator":    "search",
		"gsrsearch":    "doom game",
		"gsrnamespace": "6",
		"gsrlimit":     "10",
		"gsroffset":    "10",
		"prop":         "imageinfo",
		"iiprop":       "url|mime",
		"format":       "json",
	}
	for key, value := range checks {
		if query.Get(key) != value {
			t.Errorf("expected %s=%q, got %q", key, value, query.Get(key))
		}
	}
}

func TestFeedSearch_EdgeCases(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantOutcome gallery.Outcome
		wantNext    gallery.Cursor
		wantDone    bool
	}{
		{
			name:        "no results",
			handler:     respond(`{"batchcomplete": true}`),
			wantOutcome: gallery.OutcomeEmpty,
			wantNext:    "40",
			wantDone:    true,
		},
		{
			name:        "pages without imageinfo",
			handler:     respond(`{"query": {"pages": [{"title": "File:A.png"}, null]}}`),
			wantOutcome: gallery.OutcomeEmpty,
			wantNext:    "40",
			wantDone:    true,
		},
		{
			name:        "query of the wrong shape",
			handler:     respond(`{"query": {"pages": "nope"}}`),
			wantOutcome: gallery.OutcomeMalformed,
			wantNext:    "40",
		},
		{
			name:        "not json",
			handler:     respond(`<html>maintenance</html>`),
			wantOutcome: gallery.OutcomeMalformed,
			wantNext:    "40",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream", http.StatusServiceUnavailable)
			},
			wantOutcome: gallery.OutcomeNetworkFailure,
			wantNext:    "40",
		},
		{
			name:        "api error",
			handler:     respond(`{"error": {"code": "badvalue", "info": "Unrecognized value"}}`),
			wantOutcome: gallery.OutcomeMalformed,
			wantNext:    "40",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := newTestFeed(t, tt.handler)
			got := feed.FetchPage(context.Background(), gallery.PageRequest{Cursor: "40", Count: 10})

			if got.Outcome != tt.wantOutcome {
				t.Errorf("expected outcome %s, got %s (%v)", tt.wantOutcome, got.Outcome, got.Err)
			}
			if len(got.Images) != 0 {
				t.Errorf("expected no images, got %v", got.Images)
			}
			if got.Next != tt.wantNext {
				t.Errorf("expected cursor %q, got %q", tt.wantNext, got.Next)
			}
			if got.Done != tt.wantDone {
				t.Errorf("expected done=%v, got %v", tt.wantDone, got.Done)
			}
		})
	}
}

func TestFeedSearch_APIErrorKeepsCode(t *testing.T) {
	feed := newTestFeed(t, respond(`{"error": {"code": "badvalue", "info": "Unrecognized value"}}`))
	got := feed.FetchPage(context.Background(), gallery.PageRequest{Count: 10})

	if !errors.Is(got.Err, mediawiki.ErrAPI) {
		t.Fatalf("expected api error, got %v", got.Err)
	}
	if !errors.Is(got.Err, gallery.ErrMalformedResponse) {
		t.Errorf("expected api error to count as malformed, got %v", got.Err)
	}
}

func TestFeedSearch_UID(t *testing.T) {
	logger := zerolog.Nop()
	feed := NewFeedSearch(mediawiki.NewClient(mediawiki.CommonsAPIURL, nil), "doom game", &logger)

	if got := feed.UID().String(); got != "commonssearch:commons.wikimedia.org:w:api.php:doom game" {
		t.Errorf("unexpected uid %s", got)
	}
}
