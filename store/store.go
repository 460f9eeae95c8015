// Package store is the remote key value store the agent polls.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/srlehn/kioskimg/internal/errors"
	"github.com/srlehn/kioskimg/internal/logx"
)

// Store is the subset of store operations used by the agent and the console.
type Store interface {
	Ping(ctx context.Context) error
	// Get returns the string value of key. A missing key is reported with found == false, not as an error.
	Get(ctx context.Context, key string) (value string, found bool, _ error)
	Set(ctx context.Context, key, value string) error
	// Del removes keys and returns the number of removed keys.
	Del(ctx context.Context, keys ...string) (int64, error)
	// Do sends an arbitrary command.
	Do(ctx context.Context, args ...any) (any, error)
	Close() error
}

// Options for the redis client.
type Options struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	Logger      *slog.Logger
}

type Redis struct {
	client *redis.Client
	addr   string
	logger *slog.Logger
}

var _ Store = (*Redis)(nil)

var _ logx.LoggerProvider = (*Redis)(nil)

// NewRedis creates a client. Connections are established lazily and
// re-established by the client after failures.
func NewRedis(opts Options) *Redis {
	dialTimeout := opts.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: dialTimeout,
		ReadTimeout: dialTimeout,
		MaxRetries:  1,
	})
	return &Redis{client: client, addr: opts.Addr, logger: opts.Logger}
}

func (r *Redis) Logger() *slog.Logger {
	if r == nil || r.logger == nil {
		return logx.Nop()
	}
	return r.logger
}

func (r *Redis) Addr() string { return r.addr }

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.New(`ping ` + r.addr + `: ` + err.Error())
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		logx.Debug(`key not found`, r, `key`, key)
		return ``, false, nil
	}
	if err != nil {
		return ``, false, errors.New(`GET ` + key + `: ` + err.Error())
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return errors.New(`SET ` + key + `: ` + err.Error())
	}
	return nil
}

func (r *Redis) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, errors.New(`DEL: ` + err.Error())
	}
	return n, nil
}

func (r *Redis) Do(ctx context.Context, args ...any) (any, error) {
	if len(args) == 0 {
		return nil, errors.NilParam()
	}
	val, err := r.client.Do(ctx, args...).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(err)
	}
	return val, nil
}

// Info returns the parsed INFO reply.
func (r *Redis) Info(ctx context.Context, sections ...string) (map[string]string, error) {
	raw, err := r.client.Info(ctx, sections...).Result()
	if err != nil {
		return nil, errors.New(err)
	}
	return ParseInfo(raw), nil
}

// DBSize returns the number of keys in the selected database.
func (r *Redis) DBSize(ctx context.Context) (int64, error) {
	n, err := r.client.DBSize(ctx).Result()
	if err != nil {
		return 0, errors.New(err)
	}
	return n, nil
}

func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	if err := r.client.Close(); err != nil {
		return errors.New(err)
	}
	logx.Debug(`disconnected from store`, r, `addr`, r.addr)
	return nil
}
