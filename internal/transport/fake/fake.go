// Package fake provides a programmable in-memory transport for tests.
package fake

import (
	"context"
	"sync"

	"switchgraph/internal/transport"
)

// FetchCall stores one Fetch invocation.
type FetchCall struct {
	DeviceIP string
	Resource transport.Resource
	Key      string
}

// ApplyCall stores one Apply invocation.
type ApplyCall struct {
	DeviceIP string
	Mutation transport.Mutation
}

// Client is a programmable implementation of transport.Client. Responses are
// served from Data unless FetchFunc is set; Apply succeeds unless ApplyFunc
// says otherwise.
type Client struct {
	mu        sync.Mutex
	data      map[FetchCall]transport.Raw
	FetchFunc func(ctx context.Context, deviceIP string, res transport.Resource, key string) (transport.Raw, error)
	ApplyFunc func(ctx context.Context, deviceIP string, m transport.Mutation) error

	fetches []FetchCall
	applies []ApplyCall
}

var _ transport.Client = (*Client)(nil)

// New creates an empty fake client
func New() *Client {
	return &Client{data: make(map[FetchCall]transport.Raw)}
}

// Set installs the raw response for a device resource
func (c *Client) Set(deviceIP string, res transport.Resource, key string, raw transport.Raw) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[FetchCall{DeviceIP: deviceIP, Resource: res, Key: key}] = raw
}

// Lookup returns the canned response for a device resource, or an empty Raw
func (c *Client) Lookup(deviceIP string, res transport.Resource, key string) transport.Raw {
	c.mu.Lock()
	defer c.mu.Unlock()
	if raw, ok := c.data[FetchCall{DeviceIP: deviceIP, Resource: res, Key: key}]; ok {
		return raw
	}
	return transport.Raw{}
}

func (c *Client) Fetch(ctx context.Context, deviceIP string, res transport.Resource, key string) (transport.Raw, error) {
	call := FetchCall{DeviceIP: deviceIP, Resource: res, Key: key}

	c.mu.Lock()
	c.fetches = append(c.fetches, call)
	fn := c.FetchFunc
	raw, ok := c.data[call]
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fn != nil {
		return fn(ctx, deviceIP, res, key)
	}
	if !ok {
		return transport.Raw{}, nil
	}
	return raw, nil
}

func (c *Client) Apply(ctx context.Context, deviceIP string, m transport.Mutation) error {
	c.mu.Lock()
	c.applies = append(c.applies, ApplyCall{DeviceIP: deviceIP, Mutation: m})
	fn := c.ApplyFunc
	c.mu.Unlock()

	if fn != nil {
		return fn(ctx, deviceIP, m)
	}
	return nil
}

// Fetches returns a copy of accumulated Fetch calls.
func (c *Client) Fetches() []FetchCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]FetchCall, len(c.fetches))
	copy(out, c.fetches)
	return out
}

// Applies returns a copy of accumulated Apply calls.
func (c *Client) Applies() []ApplyCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ApplyCall, len(c.applies))
	copy(out, c.applies)
	return out
}
