package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chescoreloaded/SistemaExamenes-sub001/notify"
	"github.com/chescoreloaded/SistemaExamenes-sub001/stream"
)

// Subscribe subscribes to a stream topic and returns a channel of events.
// The channel is closed by Unsubscribe or Close.
//
// Topics follow the stream convention:
//   - "failures"      writes dropped after exhausting retries
//   - "items"         every item lifecycle event
//   - "queue"         clear and resume
//   - "network"       connectivity changes
//   - "item:<id>"     one queued write
//   - "name:<name>"   writes sharing a name
//   - "firehose"      everything
func (c *Client) Subscribe(ctx context.Context, channel string) (<-chan *stream.Event, error) {
	if _, err := c.request(ctx, notify.MethodSubscribe, notify.SubscribeRequest{Channel: channel}); err != nil {
		return nil, fmt.Errorf("subscribe to %q: %w", channel, err)
	}

	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if ch, ok := c.subs[channel]; ok {
		return ch, nil
	}
	ch := make(chan *stream.Event, c.bufferSize)
	c.subs[channel] = ch
	return ch, nil
}

// Unsubscribe removes a subscription and closes its channel.
func (c *Client) Unsubscribe(ctx context.Context, channel string) error {
	_, err := c.request(ctx, notify.MethodUnsubscribe, notify.UnsubscribeRequest{Channel: channel})

	c.subsMu.Lock()
	if ch, ok := c.subs[channel]; ok {
		close(ch)
		delete(c.subs, channel)
	}
	c.subsMu.Unlock()

	return err
}

// Failures subscribes to the failures topic and decodes each drop
// notification. The channel closes with the subscription or the client,
// even if the caller stopped reading.
func (c *Client) Failures(ctx context.Context) (<-chan stream.FailureEventData, error) {
	events, err := c.Subscribe(ctx, stream.TopicFailures)
	if err != nil {
		return nil, err
	}

	out := make(chan stream.FailureEventData, c.bufferSize)
	go func() {
		defer close(out)
		for evt := range events {
			var data stream.FailureEventData
			if jsonErr := json.Unmarshal(evt.Data, &data); jsonErr != nil {
				continue
			}
			select {
			case out <- data:
			case <-c.done:
				return
			}
		}
	}()
	return out, nil
}
