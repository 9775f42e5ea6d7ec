// Package matching implements the interest-based matchmaking queue.
//
// The queue is a plain data structure with no locking of its own; the hub
// serializes all access under its mutex. Entries are kept in arrival order
// and indexed per interest, so a match pass is a single ordered scan.
package matching

import (
	"errors"
	"time"
)

// ErrAlreadyQueued is returned when a session that already has a pending
// entry tries to enqueue again.
var ErrAlreadyQueued = errors.New("session already queued")

// Entry is one waiting session.
type Entry struct {
	SessionID  string
	Interest   string
	EnqueuedAt time.Time
}

// Pair is the result of a successful match pass. A enqueued before B.
type Pair struct {
	A *Entry
	B *Entry
}

// Queue is an ordered waiting list with per-interest buckets.
type Queue struct {
	entries []*Entry
	byID    map[string]*Entry
	// Per-interest sub-queues in arrival order. Entries with an empty
	// interest are never bucketed and never matched.
	buckets map[string][]*Entry

	// When set, a pass that finds no interest pair will pair the two
	// oldest entries regardless of interest.
	fallbackAny bool
}

// New creates an empty queue. fallbackAny enables arrival-order pairing
// when no interest match exists.
func New(fallbackAny bool) *Queue {
	return &Queue{
		byID:        make(map[string]*Entry),
		buckets:     make(map[string][]*Entry),
		fallbackAny: fallbackAny,
	}
}

// Enqueue appends a waiting entry for the session.
// Returns ErrAlreadyQueued if the session already has one.
func (q *Queue) Enqueue(sessionID, interest string) error {
	if _, ok := q.byID[sessionID]; ok {
		return ErrAlreadyQueued
	}
	e := &Entry{
		SessionID:  sessionID,
		Interest:   interest,
		EnqueuedAt: time.Now(),
	}
	q.entries = append(q.entries, e)
	q.byID[sessionID] = e
	if interest != "" {
		q.buckets[interest] = append(q.buckets[interest], e)
	}
	return nil
}

// Remove deletes the session's entry if present.
// Returns false if the session was not queued (idempotent cancel).
func (q *Queue) Remove(sessionID string) bool {
	e, ok := q.byID[sessionID]
	if !ok {
		return false
	}
	q.unlink(e)
	return true
}

// Contains reports whether the session has a pending entry.
func (q *Queue) Contains(sessionID string) bool {
	_, ok := q.byID[sessionID]
	return ok
}

// Len returns the number of waiting entries.
func (q *Queue) Len() int {
	return len(q.entries)
}

// MatchPass scans the queue for the first pair of distinct entries with an
// equal, non-empty interest, earliest-enqueued first. On success both
// entries are removed and returned. A single pass produces at most one
// pair. With fallbackAny set, a pass that finds no interest pair but holds
// at least two entries pairs the two oldest instead.
func (q *Queue) MatchPass() (Pair, bool) {
	for _, e := range q.entries {
		if e.Interest == "" {
			continue
		}
		bucket := q.buckets[e.Interest]
		if len(bucket) < 2 {
			continue
		}
		// The scan visits entries in arrival order, so e is the
		// oldest entry of its bucket.
		return q.take(bucket[0], bucket[1]), true
	}

	if q.fallbackAny && len(q.entries) >= 2 {
		return q.take(q.entries[0], q.entries[1]), true
	}

	return Pair{}, false
}

func (q *Queue) take(a, b *Entry) Pair {
	q.unlink(a)
	q.unlink(b)
	return Pair{A: a, B: b}
}

func (q *Queue) unlink(e *Entry) {
	delete(q.byID, e.SessionID)
	for i, cur := range q.entries {
		if cur == e {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	if e.Interest == "" {
		return
	}
	bucket := q.buckets[e.Interest]
	for i, cur := range bucket {
		if cur == e {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(q.buckets, e.Interest)
	} else {
		q.buckets[e.Interest] = bucket
	}
}
