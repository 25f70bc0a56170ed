package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"student-wellness/backend/internal/access"
	"student-wellness/backend/pkg/redis"
)

// AccessCache 会话级权限快照缓存，每个会话一项，刷新时整体覆盖
type AccessCache interface {
	// Get 未命中返回 ok=false
	Get(ctx context.Context, sessionID string) (access.Context, bool, error)
	Set(ctx context.Context, sessionID string, ac access.Context) error
	Delete(ctx context.Context, sessionID string) error
}

// ── Redis 实现 ──

type redisAccessCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAccessCache 基于 Redis 的会话缓存，多实例部署共享
func NewRedisAccessCache(client *redis.Client, ttl time.Duration) AccessCache {
	return &redisAccessCache{client: client, ttl: ttl}
}

func (c *redisAccessCache) Get(ctx context.Context, sessionID string) (access.Context, bool, error) {
	data, ok, err := c.client.GetAccess(ctx, sessionID)
	if err != nil || !ok {
		return access.Context{}, false, err
	}
	var ac access.Context
	if err := json.Unmarshal(data, &ac); err != nil {
		return access.Context{}, false, err
	}
	return ac, true, nil
}

func (c *redisAccessCache) Set(ctx context.Context, sessionID string, ac access.Context) error {
	data, err := json.Marshal(ac)
	if err != nil {
		return err
	}
	return c.client.SetAccess(ctx, sessionID, data, c.ttl)
}

func (c *redisAccessCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.DeleteAccess(ctx, sessionID)
}

// ── 进程内实现（未配置 Redis 时使用） ──

type memoryAccessCache struct {
	lru *expirable.LRU[string, access.Context]
}

// NewMemoryAccessCache 进程内会话缓存，最多 size 项，超出时淘汰最久未用的会话
func NewMemoryAccessCache(size int, ttl time.Duration) AccessCache {
	return &memoryAccessCache{lru: expirable.NewLRU[string, access.Context](size, nil, ttl)}
}

func (c *memoryAccessCache) Get(_ context.Context, sessionID string) (access.Context, bool, error) {
	ac, ok := c.lru.Get(sessionID)
	return ac, ok, nil
}

func (c *memoryAccessCache) Set(_ context.Context, sessionID string, ac access.Context) error {
	c.lru.Add(sessionID, ac)
	return nil
}

func (c *memoryAccessCache) Delete(_ context.Context, sessionID string) error {
	c.lru.Remove(sessionID)
	return nil
}
