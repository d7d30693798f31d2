package backend

import "sync"

type cachedResource struct {
	etag string
	body []byte
}

// conditionalCache keeps the last ETag and body per path for conditional
// requests. Bodies are small JSON documents; one entry per polled resource.
type conditionalCache struct {
	mu        sync.Mutex
	resources map[string]cachedResource
}

func newConditionalCache() *conditionalCache {
	return &conditionalCache{resources: make(map[string]cachedResource)}
}

func (c *conditionalCache) etag(path string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resources[path].etag
}

func (c *conditionalCache) body(path string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.resources[path]
	if !ok || len(res.body) == 0 {
		return nil, false
	}
	return res.body, true
}

func (c *conditionalCache) store(path, etag string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources[path] = cachedResource{etag: etag, body: body}
}

func (c *conditionalCache) forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.resources, path)
}
