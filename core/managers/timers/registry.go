// Package timers keeps in-memory countdown timers. Unlike alarms, which
// persist and survive restarts, timers are ephemeral and only live while the
// assistant is running.
package timers

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ActiveTimer is a single countdown timer.
type ActiveTimer struct {
	Label     string
	Duration  time.Duration
	StartTime time.Time
}

// Remaining returns the time left on the timer, never negative.
func (t ActiveTimer) Remaining() time.Duration {
	remaining := t.Duration - time.Since(t.StartTime)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether the timer has run out.
func (t ActiveTimer) Expired() bool { return t.Remaining() <= 0 }

// FormatRemaining renders the remaining time as a compact spoken-friendly
// string like "1h 3m 20s".
func (t ActiveTimer) FormatRemaining() string {
	secs := int(t.Remaining().Round(time.Second).Seconds())
	mins, secs := secs/60, secs%60
	hours, mins := mins/60, mins%60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, mins, secs)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

// Registry holds active timers. The main loop creates timers while the expiry
// notifier reads and deletes them, so every mutation happens under the mutex.
type Registry struct {
	mu     sync.Mutex
	timers map[string]ActiveTimer
}

func NewRegistry() *Registry {
	return &Registry{timers: map[string]ActiveTimer{}}
}

// Add creates and stores a new timer. A timer with the same label is
// replaced.
func (r *Registry) Add(label string, duration time.Duration) ActiveTimer {
	timer := ActiveTimer{
		Label:     label,
		Duration:  duration,
		StartTime: time.Now(),
	}

	r.mu.Lock()
	r.timers[label] = timer
	r.mu.Unlock()

	return timer
}

// Active returns all non-expired timers, removing expired ones as a side
// effect.
func (r *Registry) Active() []ActiveTimer {
	r.mu.Lock()
	defer r.mu.Unlock()

	var active []ActiveTimer
	for label, timer := range r.timers {
		if timer.Expired() {
			delete(r.timers, label)
			continue
		}
		active = append(active, timer)
	}

	return active
}

// Cancel removes a timer by label. Returns true if a timer was found.
func (r *Registry) Cancel(label string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.timers[label]; !ok {
		return false
	}
	delete(r.timers, label)
	return true
}

// Notify runs until the context is cancelled, invoking onExpired for every
// timer that runs out. Expired timers are removed from the registry before
// the callback fires.
func (r *Registry) Notify(ctx context.Context, onExpired func(ActiveTimer)) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			var expired []ActiveTimer
			for label, timer := range r.timers {
				if timer.Expired() {
					expired = append(expired, timer)
					delete(r.timers, label)
				}
			}
			r.mu.Unlock()

			for _, timer := range expired {
				onExpired(timer)
			}
		}
	}
}
