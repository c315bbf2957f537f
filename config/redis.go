package config

import (
	"context"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

// Redis 在线状态镜像用的客户端；未配置 REDIS_ADDR 时保持为 nil，
// 此时在线状态只存在于进程内存中（单机部署）。
var Redis *redis.Client

// InitRedis 按需初始化 Redis 连接
func InitRedis() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("Redis unavailable, presence mirror disabled: %v", err)
		return
	}
	Redis = client
}
