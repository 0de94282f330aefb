package feedback

import "sync"

// Versioner hands out prompt version numbers.
type Versioner interface {
	// Current returns the last issued version.
	Current() int
	// Next advances the counter and returns the new version.
	Next() int
}

// Counter is an in-memory Versioner. Its value is lost on restart.
type Counter struct {
	mu sync.Mutex
	n  int
}

func NewCounter(start int) *Counter {
	return &Counter{n: start}
}

func (c *Counter) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func (c *Counter) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}
