package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sertugser/assessai/internal/logger"
)

// ChannelPrefix prefixes the per-user Redis pub/sub channel.
const ChannelPrefix = "assessai:progress:"

// RedisOptions configures the Redis broker.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisBroker publishes through Redis so every process sees every change.
// Events received from Redis are fanned out through a local Hub.
type RedisBroker struct {
	log    *logger.Logger
	rdb    *goredis.Client
	hub    *Hub
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRedisBroker connects to Redis and starts the forwarder.
func NewRedisBroker(opts RedisOptions, log *logger.Logger) (*RedisBroker, error) {
	if log == nil {
		log = logger.Nop()
	}
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	b := &RedisBroker{
		log: log.With("component", "notify-redis"),
		rdb: rdb,
		hub: NewHub(log),
	}
	if err := b.startForwarder(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return b, nil
}

// Channel returns the Redis channel for userID.
func Channel(userID string) string {
	return ChannelPrefix + strings.TrimSpace(userID)
}

func (b *RedisBroker) Publish(ctx context.Context, userID string) error {
	raw, err := json.Marshal(Event{UserID: strings.TrimSpace(userID), At: time.Now()})
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, Channel(userID), raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, userID string) (<-chan Event, func()) {
	return b.hub.Subscribe(ctx, userID)
}

func (b *RedisBroker) startForwarder() error {
	ctx, cancel := context.WithCancel(context.Background())
	sub := b.rdb.PSubscribe(ctx, ChannelPrefix+"*")

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	b.cancel = cancel
	b.done = make(chan struct{})

	go func() {
		defer close(b.done)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				ev, err := decodeEvent(m.Channel, m.Payload)
				if err != nil {
					b.log.Warn("bad redis progress payload", "error", err)
					continue
				}
				b.hub.deliver(ev)
			}
		}
	}()
	return nil
}

// decodeEvent parses a payload. The channel name is authoritative for the
// user id.
func decodeEvent(channel, payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, err
	}
	ev.UserID = strings.TrimPrefix(channel, ChannelPrefix)
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	return ev, nil
}

// Close stops the forwarder and closes the client.
func (b *RedisBroker) Close() error {
	if b.cancel != nil {
		b.cancel()
		<-b.done
	}
	return b.rdb.Close()
}

// New returns a RedisBroker when opts.Addr is set, otherwise an in-process Hub.
func New(opts RedisOptions, log *logger.Logger) (Broker, error) {
	if strings.TrimSpace(opts.Addr) == "" {
		return NewHub(log), nil
	}
	return NewRedisBroker(opts, log)
}
