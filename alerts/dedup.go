package alerts

import (
	"crypto/md5"
	"fmt"
	"sync"
	"time"
)

// entry tracks one distinct error signature: how many occurrences have
// been seen since the last reset, and when a notification last went out.
// A zero lastSent means no notification has ever been sent.
type entry struct {
	count    int
	lastSent time.Time
}

// Cache is the in-memory dedup state for error notifications. It decides,
// per signature, whether a new occurrence should trigger a notification
// or merely increment a counter.
type Cache struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]*entry
}

/**
 * NewCache creates a dedup cache with the given notification window.
 * A zero (or negative) window disables batching: every occurrence after
 * the previous send triggers its own notification.
 *
 * @param window Duration during which repeats are counted, not re-alerted
 * @return *Cache Empty cache ready for use
 */
func NewCache(window time.Duration) *Cache {
	if window < 0 {
		window = 0
	}
	return &Cache{
		window:  window,
		entries: make(map[string]*entry),
	}
}

// Observe records one occurrence of signature at now and reports whether
// a notification should be dispatched for it. The increment, the window
// check and the post-send reset happen under one lock acquisition, so no
// other occurrence of the same signature can interleave between the
// decision and the mutation.
//
// The window test is strictly greater-than: an occurrence arriving
// exactly at the boundary does not send yet. The returned occurrence
// count is the size of the batch the notification summarizes.
func (c *Cache) Observe(signature string, now time.Time) (send bool, occurrences int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[signature]
	if !ok {
		e = &entry{}
		c.entries[signature] = e
	}

	e.count++
	if now.Sub(e.lastSent) > c.window {
		occurrences = e.count
		e.count = 0
		e.lastSent = now
		return true, occurrences
	}

	return false, e.count
}

// Clear unconditionally drops every entry. This is the coarse daily
// reset, not a per-entry expiry: signatures with recent activity lose
// their history just like stale ones.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Len reports the number of distinct signatures currently tracked.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// signatureFor derives the dedup key for a record. Two events map to the
// same key iff their level and message text are identical; embedded
// dynamic data (IDs, timestamps) makes otherwise-equal errors distinct.
func signatureFor(level, message string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(level+": "+message)))
}
