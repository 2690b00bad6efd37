// SPDX-License-Identifier: MIT

package fake

import (
	"sync"

	"github.com/MWieland/playctl/internal/media"
)

// Client is a scriptable media.SegmentedClient.
type Client struct {
	mu      sync.Mutex
	subs    map[int]func(media.ClientEvent)
	nextSub int

	AttachedTo media.Surface
	AttachErr  error

	LoadedURI     string
	LoadedHeaders map[string]string
	LoadErr       error

	StartLoadCalls    []float64
	StopLoadCalls     int
	RecoverMediaCalls int
	DetachCalls       int
	DestroyCalls      int
	Destroyed         bool
}

// NewClient returns an empty fake segmented client.
func NewClient() *Client {
	return &Client{subs: map[int]func(media.ClientEvent){}}
}

func (c *Client) Attach(s media.Surface) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.AttachErr != nil {
		return c.AttachErr
	}
	c.AttachedTo = s
	return nil
}

func (c *Client) Load(uri string, headers map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.LoadErr != nil {
		return c.LoadErr
	}
	c.LoadedURI = uri
	c.LoadedHeaders = headers
	return nil
}

func (c *Client) StartLoad(position float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.StartLoadCalls = append(c.StartLoadCalls, position)
}

func (c *Client) StopLoad() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.StopLoadCalls++
}

func (c *Client) RecoverMedia() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.RecoverMediaCalls++
}

func (c *Client) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DetachCalls++
	c.AttachedTo = nil
}

func (c *Client) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DestroyCalls++
	c.Destroyed = true
}

func (c *Client) Subscribe(fn func(media.ClientEvent)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Emit delivers an event to all subscribers. Destroyed clients stay
// silent, matching the SegmentedClient contract.
func (c *Client) Emit(ev media.ClientEvent) {
	c.mu.Lock()
	if c.Destroyed {
		c.mu.Unlock()
		return
	}
	fns := make([]func(media.ClientEvent), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
