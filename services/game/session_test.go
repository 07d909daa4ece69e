package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func stoppedTimer(t *GameTimer) bool {
	select {
	case <-t.stopCh:
		return true
	default:
		return false
	}
}

func TestSessionStartTimerReplacesExisting(t *testing.T) {
	sess := &roomSession{}
	noop := func(string, TickPayload) {}
	noTimeout := func(string) {}

	first := newGameTimer("room-1", time.Now(), 0, 60, time.Hour, time.Now, noop, noTimeout)
	second := newGameTimer("room-1", time.Now(), 0, 60, time.Hour, time.Now, noop, noTimeout)

	sess.mu.Lock()
	sess.startTimer(first)
	sess.startTimer(second)
	sess.mu.Unlock()

	// No two timers for the same room coexist.
	assert.True(t, stoppedTimer(first))
	assert.False(t, stoppedTimer(second))
	assert.Same(t, second, sess.timer)

	sess.mu.Lock()
	sess.stopTimer()
	sess.stopTimer() // idempotent
	sess.mu.Unlock()
	assert.True(t, stoppedTimer(second))
	assert.Nil(t, sess.timer)
}

func TestSessionArena(t *testing.T) {
	arena := newSessionArena()

	one := arena.get("room-1")
	two := arena.get("room-2")
	assert.Same(t, one, arena.get("room-1"))
	assert.NotSame(t, one, two)

	arena.drop("room-1")
	assert.NotSame(t, one, arena.get("room-1"))
}
