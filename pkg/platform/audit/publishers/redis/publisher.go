// Package redis broadcasts audit events on a Redis pub/sub channel for
// live dashboards. Delivery is best effort; durable storage lives elsewhere.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	audit "ledgerguard/pkg/platform/audit"
)

// Publisher implements audit.Sink.
type Publisher struct {
	client  redis.UniversalClient
	channel string
}

func NewPublisher(client redis.UniversalClient, channel string) *Publisher {
	return &Publisher{client: client, channel: channel}
}

func (p *Publisher) Append(ctx context.Context, event audit.Event) error {
	payload, err := audit.Encode(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

// Subscribe streams decoded events until ctx is done. Undecodable messages are dropped.
func (p *Publisher) Subscribe(ctx context.Context) (<-chan audit.Event, error) {
	sub := p.client.Subscribe(ctx, p.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", p.channel, err)
	}
	out := make(chan audit.Event)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				event, err := audit.Decode([]byte(msg.Payload))
				if err != nil {
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
