package api

import (
	"context"
	"time"

	"github.com/defeedco/doomscroll/pkg/gallery"
	"github.com/defeedco/doomscroll/pkg/lib"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AggregatorFactory builds the aggregator of a new gallery session.
type AggregatorFactory func() *gallery.Aggregator

// Session is one scrolling client. Its paginator owns the provider cursors and the page index.
type Session struct {
	ID        string
	CreatedAt time.Time
	paginator *gallery.Paginator
}

// SessionStore keeps sessions in memory until they have been idle for the TTL.
type SessionStore struct {
	sessions      *lib.Cache
	ttl           time.Duration
	newAggregator AggregatorFactory
	pageSize      int
	logger        *zerolog.Logger
}

func NewSessionStore(newAggregator AggregatorFactory, pageSize int, ttl time.Duration, logger *zerolog.Logger) *SessionStore {
	return &SessionStore{
		sessions:      lib.NewCache(ttl, logger),
		ttl:           ttl,
		newAggregator: newAggregator,
		pageSize:      pageSize,
		logger:        logger,
	}
}

func (s *SessionStore) Create() *Session {
	session := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		paginator: gallery.NewPaginator(s.newAggregator(), s.pageSize, s.logger),
	}

	s.sessions.Set(session.ID, session)

	s.logger.Debug().
		Str("session_id", session.ID).
		Int("active_sessions", s.sessions.Len()).
		Msg("Created gallery session")

	return session
}

// Get returns a live session and extends its lifetime.
func (s *SessionStore) Get(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	value, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	s.sessions.Touch(id)

	return value.(*Session), true
}

func (s *SessionStore) Delete(id string) {
	s.sessions.Delete(id)
}

func (s *SessionStore) Len() int {
	return s.sessions.Len()
}

// Run sweeps expired sessions until ctx is done.
func (s *SessionStore) Run(ctx context.Context) {
	ticker := lib.JitteredTicker(s.ttl / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sessions.Sweep()
		}
	}
}
