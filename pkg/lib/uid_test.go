package lib

import "testing"

func TestTypedUID_String(t *testing.T) {
	tests := []struct {
		uid  TypedUID
		want string
	}{
		{NewTypedUID("redditsubreddit", "Doom", "hot"), "redditsubreddit:Doom:hot"},
		{NewTypedUID("rssfeed", "doom.example.com/feed.xml"), "rssfeed:doom.example.com:feed.xml"},
		{NewTypedUID("static"), "static"},
	}

	for _, tt := range tests {
		if got := tt.uid.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}
