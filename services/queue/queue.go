package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/mugilan0610/institute-management-system/core"
)

const (
	defaultKey       = "institute:notifications"
	deadLetterSuffix = ":dead"
)

// Message is a unit of background work.
type Message struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body"`
}

// Queue is the abstraction over the queue backends.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	// Consume streams messages until ctx is done, then closes the channel.
	Consume(ctx context.Context) (<-chan Message, error)
}

// New picks the queue backend from the config. The redis client is only used by the redis backend.
func New(conf *core.Config, client *redis.Client, logger core.Logger) (Queue, error) {
	switch conf.Queue.Backend {
	case "redis":
		if client == nil {
			return nil, errors.New("redis queue requires redis.addr")
		}
		return NewRedisQueue(client, conf.Queue.Key, logger), nil
	case "memory", "":
		return NewInMemory(conf.Queue.Size), nil
	default:
		return nil, errors.Errorf("unknown queue backend %q", conf.Queue.Backend)
	}
}

// InMemory is a bounded channel-backed queue for a single process.
type InMemory struct {
	ch chan Message
}

func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Message, size)}
}

func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-q.ch:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue is a Redis list-backed queue with LPUSH/BRPOP semantics.
// Payloads that cannot be decoded are moved to the "<key>:dead" list.
type RedisQueue struct {
	client *redis.Client
	key    string
	logger core.Logger
}

func NewRedisQueue(client *redis.Client, key string, logger core.Logger) *RedisQueue {
	if key == "" {
		key = defaultKey
	}
	return &RedisQueue{client: client, key: key, logger: logger}
}

// DeadLetterKey is the list holding the payloads that could not be decoded.
func (q *RedisQueue) DeadLetterKey() string { return q.key + deadLetterSuffix }

func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "encoding message")
	}
	return errors.Wrap(q.client.LPush(ctx, q.key, payload).Err(), "pushing message")
}

func (q *RedisQueue) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if err != redis.Nil {
					// back off on connection errors
					select {
					case <-time.After(time.Second):
					case <-ctx.Done():
						return
					}
				}
				continue
			}
			if len(res) != 2 {
				continue
			}
			msg, ok := q.decode(ctx, res[1])
			if !ok {
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// decode parses a popped payload. An undecodable payload is logged and moved to the dead-letter list.
func (q *RedisQueue) decode(ctx context.Context, payload string) (Message, bool) {
	var msg Message
	err := json.Unmarshal([]byte(payload), &msg)
	if err == nil {
		return msg, true
	}
	extras := map[string]interface{}{"queue": q.key, "payload": payload}
	q.logger.Error("undecodable queue message", errors.Wrap(err, "decoding message"), extras)
	if err = q.client.LPush(ctx, q.DeadLetterKey(), payload).Err(); err != nil {
		q.logger.Error("dead-lettering queue message", errors.Wrap(err, q.DeadLetterKey()), extras)
	}
	return Message{}, false
}

// NewRedisClient connects to redis with short timeouts. It returns nil when no address is configured.
func NewRedisClient(conf *core.Config) *redis.Client {
	if conf.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         conf.Redis.Addr,
		Password:     conf.Redis.Password,
		DB:           conf.Redis.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  7 * time.Second, // longer than the BRPOP timeout
		WriteTimeout: time.Second,
	})
}
