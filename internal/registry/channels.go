// Package registry keeps the per-link bookkeeping shown to the operator: the
// labels of the multiplexer's channels and a history of heartbeat results.
package registry

import (
	"fmt"
	"sync"
)

// DefaultChannelCount matches the multiplexer firmware
const DefaultChannelCount = 5

// Channels maps channel indices to display labels. It never validates a
// selection: bounds are the server's business.
type Channels struct {
	mu     sync.RWMutex
	count  int
	labels map[int]string
}

// NewChannels creates a registry of count channels. Labels override the
// default "SBC<n+1>" names by position; empty entries keep the default.
func NewChannels(count int, labels []string) *Channels {
	if count <= 0 {
		count = DefaultChannelCount
	}
	c := &Channels{
		count:  count,
		labels: make(map[int]string),
	}
	for i, l := range labels {
		if l != "" {
			c.labels[i] = l
		}
	}
	return c
}

// DefaultLabel returns the firmware's name for channel index
func DefaultLabel(index int) string {
	return fmt.Sprintf("SBC%d", index+1)
}

// Count returns the number of channels offered to the operator
func (c *Channels) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

// Label returns the display name of index, including indices outside Count
func (c *Channels) Label(index int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if l, ok := c.labels[index]; ok {
		return l
	}
	return DefaultLabel(index)
}

// SetLabel overrides the label of index. An empty label restores the default.
func (c *Channels) SetLabel(index int, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if label == "" {
		delete(c.labels, index)
		return
	}
	c.labels[index] = label
}

// Labels returns the labels of channels 0..Count-1
func (c *Channels) Labels() []string {
	n := c.Count()
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = c.Label(i)
	}
	return out
}
