package domain

import (
	"context"
	"fmt"
)

// Ключи кеша — единое место, чтобы не расползались по коду.
func CacheKeyFeedList(user UserID, version int64, queryHash string) string {
	return fmt.Sprintf("feeds:%d:v%d:%s", user, version, queryHash)
}
func CacheKeyFeedListVersion(user UserID) string { return fmt.Sprintf("feedsver:%d", user) }
func CacheKeyTokenJTI(jti string) string         { return "jti:" + jti }

// Простой k/v интерфейс. Реализация — Redis.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttlSeconds int) error
	Del(ctx context.Context, keys ...string) error
	// Версии списков: инвалидация = инкремент версии владельца
	Incr(ctx context.Context, key string) (int64, error)
	SetNX(ctx context.Context, key string, val []byte, ttlSeconds int) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Ping(context.Context) error
	Close()
}
