package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestObserveFirstOccurrenceSends(t *testing.T) {
	c := NewCache(time.Minute)

	send, n := c.Observe("sig", t0)
	require.True(t, send)
	assert.Equal(t, 1, n)
}

func TestObserveBatchesWithinWindow(t *testing.T) {
	c := NewCache(time.Minute)

	send, _ := c.Observe("sig", t0)
	require.True(t, send)

	for i := 1; i <= 5; i++ {
		send, n := c.Observe("sig", t0.Add(time.Duration(i)*time.Second))
		assert.False(t, send)
		assert.Equal(t, i, n)
	}

	// Past the window the batch is summarized in one send.
	send, n := c.Observe("sig", t0.Add(2*time.Minute))
	require.True(t, send)
	assert.Equal(t, 6, n)
}

func TestObserveWindowBoundaryDoesNotSend(t *testing.T) {
	c := NewCache(time.Minute)

	send, _ := c.Observe("sig", t0)
	require.True(t, send)

	// Exactly at the boundary: elapsed == window, strictly-greater fails.
	send, n := c.Observe("sig", t0.Add(time.Minute))
	assert.False(t, send)
	assert.Equal(t, 1, n)

	send, n = c.Observe("sig", t0.Add(time.Minute+time.Millisecond))
	assert.True(t, send)
	assert.Equal(t, 2, n)
}

func TestObserveZeroWindowSendsEveryDistinctInstant(t *testing.T) {
	c := NewCache(0)

	for i := 0; i < 3; i++ {
		send, n := c.Observe("sig", t0.Add(time.Duration(i)*time.Millisecond))
		assert.True(t, send)
		assert.Equal(t, 1, n)
	}

	// Same instant as the previous send is the only absorbed case.
	send, n := c.Observe("sig", t0.Add(2*time.Millisecond))
	assert.False(t, send)
	assert.Equal(t, 1, n)
}

func TestObserveNegativeWindowTreatedAsZero(t *testing.T) {
	c := NewCache(-time.Second)

	send, _ := c.Observe("sig", t0)
	require.True(t, send)
	send, _ = c.Observe("sig", t0.Add(time.Millisecond))
	assert.True(t, send)
}

func TestClearResetsHistory(t *testing.T) {
	c := NewCache(time.Hour)

	c.Observe("sig", t0)
	c.Observe("sig", t0.Add(time.Second))
	c.Observe("other", t0.Add(time.Second))
	require.Equal(t, 2, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())

	// The next occurrence is treated as first-ever and sends immediately.
	send, n := c.Observe("sig", t0.Add(2*time.Second))
	assert.True(t, send)
	assert.Equal(t, 1, n)
}

func TestObserveTracksSignaturesIndependently(t *testing.T) {
	c := NewCache(time.Minute)

	c.Observe("a", t0)
	send, n := c.Observe("b", t0)
	assert.True(t, send)
	assert.Equal(t, 1, n)

	send, _ = c.Observe("a", t0.Add(time.Second))
	assert.False(t, send)
}

func TestSignatureForDependsOnlyOnLevelAndMessage(t *testing.T) {
	assert.Equal(t, signatureFor("error", "disk full"), signatureFor("error", "disk full"))
	assert.NotEqual(t, signatureFor("error", "disk full"), signatureFor("warn", "disk full"))
	assert.NotEqual(t, signatureFor("error", "disk full"), signatureFor("error", "disk full on /dev/sda1"))
}
