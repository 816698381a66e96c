package redisfeed

import (
	"context"
	"errors"
	"fmt"

	"tickerdash/internal/market/feed"

	"github.com/redis/go-redis/v9"
)

// Source subscribes to Redis pub/sub channels carrying ticker messages.
type Source struct {
	opts     *redis.Options
	channels []string
}

func NewSource(addr, password string, db int, channels []string) *Source {
	return &Source{
		opts: &redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		},
		channels: channels,
	}
}

func (s *Source) Name() string {
	return "redis"
}

// Dial pings the server and waits for the subscription confirmation.
func (s *Source) Dial(ctx context.Context) (feed.Conn, error) {
	if len(s.channels) == 0 {
		return nil, errors.New("no redis channels configured")
	}

	client := redis.NewClient(s.opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ps := client.Subscribe(ctx, s.channels...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		_ = client.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	return &conn{client: client, ps: ps}, nil
}

type conn struct {
	client *redis.Client
	ps     *redis.PubSub
}

func (c *conn) Read(ctx context.Context) ([]byte, error) {
	msg, err := c.ps.ReceiveMessage(ctx)
	if err != nil {
		return nil, err
	}
	return []byte(msg.Payload), nil
}

func (c *conn) Close() error {
	return errors.Join(c.ps.Close(), c.client.Close())
}
