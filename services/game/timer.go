package game

import (
	"sync"
	"time"
)

// GameTimer is the per-room countdown. It ticks once per interval and
// fires the timeout callback exactly once when the total window
// (grace + duration) has elapsed, then stops itself.
//
// Elapsed time is computed from the room's startedAt wall clock, not
// from the tick count, so delayed scheduling never desynchronizes the
// remaining-time reporting.
type GameTimer struct {
	roomID          string
	startedAt       time.Time
	graceSeconds    int
	durationSeconds int
	interval        time.Duration
	now             func() time.Time

	onTick    func(roomID string, tick TickPayload)
	onTimeout func(roomID string)

	stopCh   chan struct{}
	stopOnce sync.Once
}

func newGameTimer(roomID string, startedAt time.Time, graceSeconds, durationSeconds int,
	interval time.Duration, now func() time.Time,
	onTick func(roomID string, tick TickPayload), onTimeout func(roomID string)) *GameTimer {
	return &GameTimer{
		roomID:          roomID,
		startedAt:       startedAt,
		graceSeconds:    graceSeconds,
		durationSeconds: durationSeconds,
		interval:        interval,
		now:             now,
		onTick:          onTick,
		onTimeout:       onTimeout,
		stopCh:          make(chan struct{}),
	}
}

func (t *GameTimer) start() {
	go t.run()
}

// Stop is idempotent and safe to call from any goroutine. After Stop
// returns, no further tick is produced (a tick already in flight may
// still be delivered).
func (t *GameTimer) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
}

func (t *GameTimer) run() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	totalSeconds := t.graceSeconds + t.durationSeconds
	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			elapsed := int(t.now().Sub(t.startedAt) / time.Second)
			if elapsed >= totalSeconds {
				// Self-stop before notifying, so the timeout fires once
				// and nothing ticks afterwards.
				t.Stop()
				t.onTimeout(t.roomID)
				return
			}
			t.onTick(t.roomID, newTickPayload(elapsed, t.graceSeconds, t.durationSeconds))
		}
	}
}

func newTickPayload(elapsedSeconds, graceSeconds, durationSeconds int) TickPayload {
	totalSeconds := graceSeconds + durationSeconds
	tick := TickPayload{
		ElapsedSeconds:   elapsedSeconds,
		RemainingSeconds: totalSeconds - elapsedSeconds,
		TotalSeconds:     totalSeconds,
		IsGracePeriod:    elapsedSeconds < graceSeconds,
	}
	if tick.IsGracePeriod {
		tick.GracePeriodRemaining = graceSeconds - elapsedSeconds
	}
	return tick
}
