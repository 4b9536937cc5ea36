package realtime

import (
	"context"

	"github.com/bayarwoi/wallet/auth"
)

// Synchronizer ties a Watcher to the session feed: sign-in starts the
// watcher for that user, sign-out stops it, and a change of identity
// tears down the old subscription and opens a fresh one.
type Synchronizer[T any] struct {
	sessions *auth.Sessions
	watcher  *Watcher[T]
}

func NewSynchronizer[T any](sessions *auth.Sessions, watcher *Watcher[T]) *Synchronizer[T] {
	return &Synchronizer[T]{sessions: sessions, watcher: watcher}
}

// Run blocks until ctx is cancelled, rebinding the watcher as sessions
// come and go.
func (s *Synchronizer[T]) Run(ctx context.Context) {
	feed := s.sessions.OnChange()
	defer feed.Close()
	defer s.watcher.Stop()

	current := ""
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-feed.C:
			if !ok {
				return
			}
			switch ev.Kind {
			case auth.SessionSignedOut:
				if ev.UserID == current {
					s.watcher.Stop()
					current = ""
				}
			case auth.SessionSignedIn, auth.SessionRefreshed:
				if ev.UserID != current {
					s.watcher.Start(ctx, ev.UserID)
					current = ev.UserID
				}
			}
		}
	}
}
