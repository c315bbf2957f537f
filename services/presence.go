package services

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// presence key: presence:<userId>，value 为连接数，TTL 控制在线有效期。
// 仅作为跨进程可见的在线状态镜像，进程内 Hub 仍是唯一事实来源。
const presenceTTL = 60 * time.Second

// PresenceMirror 把在线状态镜像到 Redis；mirror 为 nil 时全部为空操作
//（未配置 Redis 的单机部署）。
type PresenceMirror struct {
	rdb *redis.Client
}

// NewPresenceMirror 创建镜像；rdb 可以为 nil
func NewPresenceMirror(rdb *redis.Client) *PresenceMirror {
	if rdb == nil {
		return nil
	}
	return &PresenceMirror{rdb: rdb}
}

func presenceKey(userID uint) string {
	return "presence:" + strconv.FormatUint(uint64(userID), 10)
}

// Online 上线时累加连接数并续期
func (p *PresenceMirror) Online(userID uint) {
	if p == nil {
		return
	}
	ctx := context.Background()
	key := presenceKey(userID)
	p.rdb.Incr(ctx, key)
	p.rdb.Expire(ctx, key, presenceTTL)
}

// Refresh 心跳时续期
func (p *PresenceMirror) Refresh(userID uint) {
	if p == nil {
		return
	}
	p.rdb.Expire(context.Background(), presenceKey(userID), presenceTTL)
}

// Offline 连接断开时递减；最后一条连接断开时删除 key
func (p *PresenceMirror) Offline(userID uint) {
	if p == nil {
		return
	}
	ctx := context.Background()
	key := presenceKey(userID)
	left, err := p.rdb.Decr(ctx, key).Result()
	if err == nil && left <= 0 {
		p.rdb.Del(ctx, key)
	}
}

// IsOnline 查询镜像中的在线状态
func (p *PresenceMirror) IsOnline(userID uint) bool {
	if p == nil {
		return false
	}
	n, err := p.rdb.Exists(context.Background(), presenceKey(userID)).Result()
	return err == nil && n > 0
}
