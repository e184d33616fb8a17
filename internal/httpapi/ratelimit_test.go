package httpapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_LimiterStore_When_BurstIsExhausted(t *testing.T) {
	// setup
	store := newLimiterStore(0.001, 2)

	// act + assert
	assert.True(t, store.get("10.0.0.1").Allow())
	assert.True(t, store.get("10.0.0.1").Allow())
	assert.False(t, store.get("10.0.0.1").Allow())

	// a different client has its own budget
	assert.True(t, store.get("10.0.0.2").Allow())
}

func Test_LimiterStore_When_IdleEntriesAreCleanedUp(t *testing.T) {
	// setup
	store := newLimiterStore(1, 1)
	store.idleTTL = time.Millisecond

	store.get("10.0.0.1")
	store.get("10.0.0.2")
	time.Sleep(5 * time.Millisecond)

	// act
	store.cleanup()

	// assert
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.entries)
}
