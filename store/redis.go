package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/recoserve/core"
	"github.com/rushteam/recoserve/pkg/breaker"
)

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr     string        `koanf:"addr" validate:"required"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"gte=0"`
	Timeout  time.Duration `koanf:"timeout"`
}

// RedisStore 是 Redis 实现的 HashStore。
// 特征以 Hash 存储，批量读取走 pipeline，一次往返取回全部候选的特征。
type RedisStore struct {
	client  *redis.Client
	breaker *breaker.Breaker
}

// NewRedisStore 创建 RedisStore 并检查连通性。
func NewRedisStore(ctx context.Context, cfg RedisConfig, b *breaker.Breaker) (*RedisStore, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.Timeout > 0 {
		opts.ReadTimeout = cfg.Timeout
		opts.WriteTimeout = cfg.Timeout
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, core.Unavailable(core.ModuleStore, fmt.Sprintf("store: redis %s db %d", cfg.Addr, cfg.DB), err)
	}
	return &RedisStore{client: client, breaker: b}, nil
}

// NewRedisStoreWithClient 使用已有 client（测试或共享连接池）。
func NewRedisStoreWithClient(client *redis.Client, b *breaker.Breaker) *RedisStore {
	return &RedisStore{client: client, breaker: b}
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return breaker.Do(r.breaker, func() (map[string]string, error) {
		return r.client.HGetAll(ctx, key).Result()
	})
}

// BatchHGetAll 通过 pipeline 发送全部 HGETALL，结果与 keys 顺序一致。
func (r *RedisStore) BatchHGetAll(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return []map[string]string{}, nil
	}
	return breaker.Do(r.breaker, func() ([]map[string]string, error) {
		pipe := r.client.Pipeline()
		cmds := make([]*redis.MapStringStringCmd, len(keys))
		for i, k := range keys {
			cmds[i] = pipe.HGetAll(ctx, k)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
		out := make([]map[string]string, len(keys))
		for i, cmd := range cmds {
			out[i] = cmd.Val()
		}
		return out, nil
	})
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ core.HashStore = (*RedisStore)(nil)
