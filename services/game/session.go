package game

import "sync"

// roomSession is the in-memory side of one room: its serialization
// point and its timer handle. Commands and timer events for the same
// room are applied one at a time under mu; different rooms never block
// each other.
type roomSession struct {
	mu    sync.Mutex
	timer *GameTimer
}

// startTimer replaces any running timer so no two timers for the same
// room ever coexist. Caller must hold sess.mu.
func (s *roomSession) startTimer(t *GameTimer) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = t
	t.start()
}

// stopTimer is idempotent. Caller must hold sess.mu.
func (s *roomSession) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// sessionArena owns every room session, addressed by room id. Sessions
// are created lazily on first use and dropped when the room is
// disbanded.
type sessionArena struct {
	mu       sync.Mutex
	sessions map[string]*roomSession
}

func newSessionArena() *sessionArena {
	return &sessionArena{sessions: make(map[string]*roomSession)}
}

// peek returns the session without creating one, for callers that must
// not resurrect a disbanded room's entry.
func (a *sessionArena) peek(roomID string) (*roomSession, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	sess, ok := a.sessions[roomID]
	return sess, ok
}

func (a *sessionArena) get(roomID string) *roomSession {
	a.mu.Lock()
	defer a.mu.Unlock()
	sess, ok := a.sessions[roomID]
	if !ok {
		sess = &roomSession{}
		a.sessions[roomID] = sess
	}
	return sess
}

func (a *sessionArena) drop(roomID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, roomID)
}
