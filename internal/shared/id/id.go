// Package id provides prefixed ULID generation for runs and requests.
//
// ULIDs are lexicographically sortable, so result files named after run IDs
// list in chronological order. Prefixes keep the two namespaces apart in
// logs: run_* identifies a batch run, req_* a single inference request.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RunID identifies one batch processing run.
type RunID string

// RequestID identifies a single inference request within a run.
type RequestID string

const (
	runPrefix     = "run"
	requestPrefix = "req"
)

// Generator generates ULIDs from a guarded entropy source.
type Generator struct {
	entropy io.Reader
	mu      sync.Mutex
}

var (
	defaultGen *Generator
	once       sync.Once
)

// Default returns the shared generator backed by crypto/rand.
func Default() *Generator {
	once.Do(func() {
		defaultGen = NewGenerator(rand.Reader)
	})
	return defaultGen
}

// NewGenerator creates a generator reading entropy from r. Tests can pass a
// deterministic reader.
func NewGenerator(r io.Reader) *Generator {
	return &Generator{entropy: r}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// WithPrefix creates a prefixed ULID string.
func (g *Generator) WithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewRunID generates a new batch run ID.
func NewRunID() RunID {
	return RunID(Default().WithPrefix(runPrefix))
}

// NewRequestID generates a new inference request ID.
func NewRequestID() RequestID {
	return RequestID(Default().WithPrefix(requestPrefix))
}

func (id RunID) String() string     { return string(id) }
func (id RequestID) String() string { return string(id) }

// Timestamp extracts the creation time from a prefixed ID.
func Timestamp(id string) (time.Time, error) {
	if i := len(id) - ulid.EncodedSize; i > 0 && id[i-1] == '_' {
		id = id[i:]
	}
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
