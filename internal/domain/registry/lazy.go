package registry

import "sync"

// Lazy builds a registry on first use under an exclusive lock. Concurrent
// first callers block until the build finishes; a failed build leaves the
// slot empty so a later call retries with corrected environment state.
type Lazy struct {
	mu    sync.Mutex
	build func() (*Registry, error)
	reg   *Registry
}

// NewLazy wraps a build function. The function runs at most once per
// successful build.
func NewLazy(build func() (*Registry, error)) *Lazy {
	return &Lazy{build: build}
}

// Get returns the registry, building it if needed.
func (l *Lazy) Get() (*Registry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.reg != nil {
		return l.reg, nil
	}
	reg, err := l.build()
	if err != nil {
		return nil, err
	}
	l.reg = reg
	return l.reg, nil
}

// Ready reports whether a registry has been built.
func (l *Lazy) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reg != nil
}
