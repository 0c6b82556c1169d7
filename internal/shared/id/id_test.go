package id

import (
	"crypto/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunIDPrefix(t *testing.T) {
	id := NewRunID().String()
	assert.True(t, strings.HasPrefix(id, "run_"), "got %q", id)
}

func TestNewRequestIDPrefix(t *testing.T) {
	id := NewRequestID().String()
	assert.True(t, strings.HasPrefix(id, "req_"), "got %q", id)
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewRunID().String()
		require.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}

func TestIDsSortChronologically(t *testing.T) {
	first := NewRunID().String()
	time.Sleep(2 * time.Millisecond)
	second := NewRunID().String()
	assert.Less(t, first, second)
}

func TestTimestampRoundTrip(t *testing.T) {
	before := time.Now().Truncate(time.Millisecond)
	id := NewRunID().String()

	ts, err := Timestamp(id)
	require.NoError(t, err)
	assert.False(t, ts.Before(before))
	assert.WithinDuration(t, time.Now(), ts, time.Second)
}

func TestTimestampRejectsGarbage(t *testing.T) {
	_, err := Timestamp("run_not-a-ulid")
	assert.Error(t, err)
}

func TestGeneratorConcurrent(t *testing.T) {
	gen := NewGenerator(rand.Reader)

	var wg sync.WaitGroup
	ids := make(chan string, 100)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				ids <- gen.WithPrefix("run")
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		require.False(t, seen[id])
		seen[id] = true
	}
	assert.Len(t, seen, 100)
}
