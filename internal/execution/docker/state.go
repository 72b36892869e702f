package docker

import "sync"

// containerCache maps execution IDs to container IDs with thread-safe
// access. Entries are a per-process shortcut around label lookups; the
// durable mapping lives in container labels, so a cold cache only costs one
// extra list call.
type containerCache struct {
	mu         sync.RWMutex
	containers map[string]string
}

func newContainerCache() *containerCache {
	return &containerCache{
		containers: make(map[string]string),
	}
}

// lookup returns the cached container ID for an execution.
func (c *containerCache) lookup(executionID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.containers[executionID]
	return id, ok
}

// remember records the container backing an execution.
func (c *containerCache) remember(executionID, containerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.containers[executionID] = containerID
}

// forget drops an execution whose container no longer exists.
func (c *containerCache) forget(executionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.containers, executionID)
}
