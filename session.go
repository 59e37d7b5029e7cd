package bluesky

import (
	"context"
	"sync"
	"time"
)

// sessionTTL is how long a cached session is reused before a fresh one is
// created.
const sessionTTL = 90 * time.Minute

// cachedSessionSource reuses a session from the underlying source until it
// goes stale. The refresh is guarded by a mutex so concurrent publish calls
// cannot trigger duplicate createSession requests.
type cachedSessionSource struct {
	source SessionSource
	now    func() time.Time

	mu          sync.Mutex
	session     *Session
	refreshedAt time.Time
}

func newCachedSessionSource(source SessionSource) *cachedSessionSource {
	return &cachedSessionSource{source: source, now: time.Now}
}

func (c *cachedSessionSource) Session(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil && c.now().Sub(c.refreshedAt) < sessionTTL {
		return c.session, nil
	}

	session, err := c.source.Session(ctx)
	if err != nil {
		return nil, err
	}

	c.session = session
	c.refreshedAt = c.now()
	return session, nil
}
