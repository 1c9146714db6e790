package limiter

import (
	"context"
	"sync"
	"time"
)

// Defaults mirror the account lockout policy: five failures inside a
// fifteen-minute window lock the identifier for fifteen minutes.
const (
	defaultMaxFails = 5
	defaultWindow   = 15 * time.Minute
	defaultLockFor  = 15 * time.Minute
)

type record struct {
	count       int
	windowStart time.Time
	lockedUntil time.Time // zero while not locked
}

// Memory is a mutex-guarded in-process limiter. All operations are O(1)
// map work under a single lock; counting and lock placement are atomic
// per identifier, so two concurrent failures cannot both observe
// count=4 with neither tripping the lock.
//
// State lives only in this process. Multi-instance deployments would
// need a shared store behind the Limiter interface; that is out of
// scope here.
type Memory struct {
	mu       sync.Mutex
	maxFails int
	window   time.Duration
	lockFor  time.Duration
	records  map[string]*record
	now      func() time.Time
}

// NewMemory constructs an in-memory limiter. Non-positive arguments
// fall back to the defaults.
func NewMemory(maxFails int, window, lockFor time.Duration) *Memory {
	if maxFails <= 0 {
		maxFails = defaultMaxFails
	}
	if window <= 0 {
		window = defaultWindow
	}
	if lockFor <= 0 {
		lockFor = defaultLockFor
	}
	return &Memory{
		maxFails: maxFails,
		window:   window,
		lockFor:  lockFor,
		records:  make(map[string]*record),
		now:      time.Now,
	}
}

// Allow reports whether the identifier is locked out. An elapsed window
// or lock resets the record. A record at the threshold without a lock
// timestamp gets one lazily, a self-heal for interrupted bookkeeping.
func (m *Memory) Allow(_ context.Context, identifier string) (bool, time.Time, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[identifier]
	if !ok {
		return false, time.Time{}, nil
	}

	if !rec.lockedUntil.IsZero() {
		if now.Before(rec.lockedUntil) {
			return true, rec.lockedUntil, nil
		}
		delete(m.records, identifier)
		return false, time.Time{}, nil
	}

	if now.Sub(rec.windowStart) >= m.window {
		delete(m.records, identifier)
		return false, time.Time{}, nil
	}

	if rec.count >= m.maxFails {
		rec.lockedUntil = now.Add(m.lockFor)
		return true, rec.lockedUntil, nil
	}

	return false, time.Time{}, nil
}

// Failure counts a failed attempt within the current window, starting a
// fresh window if the previous one elapsed. The call that brings the
// count to the threshold places the lock and returns true; further
// failures while locked never extend it.
func (m *Memory) Failure(_ context.Context, identifier string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[identifier]
	switch {
	case !ok:
		m.records[identifier] = &record{count: 1, windowStart: now}
	case !rec.lockedUntil.IsZero():
		if now.Before(rec.lockedUntil) {
			rec.count++
			return false, nil
		}
		m.records[identifier] = &record{count: 1, windowStart: now}
	case now.Sub(rec.windowStart) >= m.window:
		m.records[identifier] = &record{count: 1, windowStart: now}
	default:
		rec.count++
		if rec.count >= m.maxFails {
			rec.lockedUntil = now.Add(m.lockFor)
			return true, nil
		}
	}
	return false, nil
}

// Success removes the identifier's record entirely.
func (m *Memory) Success(_ context.Context, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, identifier)
	return nil
}

// Remaining reports attempts left before lockout; a missing or expired
// record means the full allowance.
func (m *Memory) Remaining(_ context.Context, identifier string) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[identifier]
	if !ok {
		return m.maxFails, nil
	}
	if !rec.lockedUntil.IsZero() {
		if now.Before(rec.lockedUntil) {
			return 0, nil
		}
		return m.maxFails, nil
	}
	if now.Sub(rec.windowStart) >= m.window {
		return m.maxFails, nil
	}
	left := m.maxFails - rec.count
	if left < 0 {
		left = 0
	}
	return left, nil
}

// Sweep evicts records whose window (if unlocked) or lock (if locked)
// has passed.
func (m *Memory) Sweep() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, rec := range m.records {
		if !rec.lockedUntil.IsZero() {
			if !now.Before(rec.lockedUntil) {
				delete(m.records, id)
			}
			continue
		}
		if now.Sub(rec.windowStart) >= m.window {
			delete(m.records, id)
		}
	}
}
