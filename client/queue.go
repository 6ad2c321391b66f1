package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chescoreloaded/SistemaExamenes-sub001/notify"
)

// Status returns the remote queue snapshot.
func (c *Client) Status(ctx context.Context) (*notify.QueueStatusResponse, error) {
	var out notify.QueueStatusResponse
	if err := c.call(ctx, notify.MethodQueueStatus, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Clear discards the remote queue's pending writes and returns how many
// were discarded.
func (c *Client) Clear(ctx context.Context) (int, error) {
	var out notify.ClearResponse
	if err := c.call(ctx, notify.MethodQueueClear, nil, &out); err != nil {
		return 0, err
	}
	return out.Discarded, nil
}

// Resume asks the remote queue to start draining.
func (c *Client) Resume(ctx context.Context) (*notify.ResumeResponse, error) {
	var out notify.ResumeResponse
	if err := c.call(ctx, notify.MethodQueueResume, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Online returns the remote connectivity state.
func (c *Client) Online(ctx context.Context) (bool, error) {
	var out notify.NetworkState
	if err := c.call(ctx, notify.MethodNetworkStatus, nil, &out); err != nil {
		return false, err
	}
	return out.Online, nil
}

// SetOnline forwards a connectivity signal and reports whether it changed
// the remote state.
func (c *Client) SetOnline(ctx context.Context, online bool) (bool, error) {
	var out notify.NetworkSetResponse
	if err := c.call(ctx, notify.MethodNetworkSet, notify.NetworkState{Online: online}, &out); err != nil {
		return false, err
	}
	return out.Changed, nil
}

// Stats retrieves queue, broker and connection statistics.
func (c *Client) Stats(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.request(ctx, notify.MethodStats, nil)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) call(ctx context.Context, method string, req, out any) error {
	resp, err := c.request(ctx, method, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", method, err)
	}
	return nil
}
