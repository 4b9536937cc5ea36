package auth

import "sync"

// SessionEventKind tells what changed about a session.
type SessionEventKind string

const (
	SessionSignedIn  SessionEventKind = "SIGNED_IN"
	SessionSignedOut SessionEventKind = "SIGNED_OUT"
	SessionRefreshed SessionEventKind = "TOKEN_REFRESHED"
)

// SessionEvent is delivered exactly once per sign-in, sign-out, or token
// refresh.
type SessionEvent struct {
	Kind   SessionEventKind `json:"kind"`
	UserID string           `json:"user_id"`
}

// SessionFeed is one consumer's stream of session changes.
type SessionFeed struct {
	C <-chan SessionEvent

	ch       chan SessionEvent
	sessions *Sessions
	once     sync.Once
}

func (f *SessionFeed) Close() {
	f.once.Do(func() {
		f.sessions.remove(f)
		close(f.ch)
	})
}

// Sessions tracks which tokens are active and notifies subscribers of
// session changes. It is the explicit replacement for an ambient
// module-level session singleton: construct it once at startup and pass
// it to whatever needs the identity feed.
type Sessions struct {
	mu    sync.RWMutex
	byTok map[string]string // token id -> user id
	feeds map[*SessionFeed]struct{}
}

func NewSessions() *Sessions {
	return &Sessions{
		byTok: make(map[string]string),
		feeds: make(map[*SessionFeed]struct{}),
	}
}

// OnChange opens a feed of session events.
func (s *Sessions) OnChange() *SessionFeed {
	ch := make(chan SessionEvent, 8)
	feed := &SessionFeed{C: ch, ch: ch, sessions: s}
	s.mu.Lock()
	s.feeds[feed] = struct{}{}
	s.mu.Unlock()
	return feed
}

// SignIn registers a token and announces the new session.
func (s *Sessions) SignIn(tokenID, userID string) {
	s.mu.Lock()
	s.byTok[tokenID] = userID
	s.mu.Unlock()
	s.publish(SessionEvent{Kind: SessionSignedIn, UserID: userID})
}

// SignOut revokes a token. Unknown tokens are ignored and produce no
// event.
func (s *Sessions) SignOut(tokenID string) {
	s.mu.Lock()
	userID, ok := s.byTok[tokenID]
	if ok {
		delete(s.byTok, tokenID)
	}
	s.mu.Unlock()
	if ok {
		s.publish(SessionEvent{Kind: SessionSignedOut, UserID: userID})
	}
}

// Refresh swaps an old token for a new one for the same user.
func (s *Sessions) Refresh(oldTokenID, newTokenID, userID string) {
	s.mu.Lock()
	delete(s.byTok, oldTokenID)
	s.byTok[newTokenID] = userID
	s.mu.Unlock()
	s.publish(SessionEvent{Kind: SessionRefreshed, UserID: userID})
}

// Active reports whether a token is still valid and, if so, whose it is.
func (s *Sessions) Active(tokenID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byTok[tokenID]
	return userID, ok
}

func (s *Sessions) publish(ev SessionEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for feed := range s.feeds {
		select {
		case feed.ch <- ev:
		default:
		}
	}
}

func (s *Sessions) remove(feed *SessionFeed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.feeds, feed)
}
