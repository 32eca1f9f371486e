package lib

import (
	"fmt"
	"strings"
)

// TypedUID is a structured ID format for easy feed type extraction.
// Example: "redditsubreddit:Doom:hot"
type TypedUID struct {
	Type        string
	Identifiers []string
}

func (s TypedUID) String() string {
	ids := make([]string, len(s.Identifiers))
	for i, id := range s.Identifiers {
		// Slashes would break the UID when it's used as a path argument or map key in logs.
		ids[i] = strings.ReplaceAll(id, "/", ":")
	}
	if len(ids) == 0 {
		return s.Type
	}
	return fmt.Sprintf("%s:%s", s.Type, strings.Join(ids, ":"))
}

func NewTypedUID(typ string, identifiers ...string) TypedUID {
	return TypedUID{
		Type:        typ,
		Identifiers: identifiers,
	}
}
