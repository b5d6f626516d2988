package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	onlineUserKeyPrefix = "online_user:"
	blacklistKeyPrefix  = "token_blacklist:"
)

// OnlineUserRecord 在线用户记录（以令牌为键写入 Redis）
type OnlineUserRecord struct {
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	Nickname   string    `json:"nickname"`
	TenantID   int64     `json:"tenant_id"`
	ClientType string    `json:"client_type"`
	ClientID   string    `json:"client_id"`
	IP         string    `json:"ip"`
	Address    string    `json:"address"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	LoginTime  time.Time `json:"login_time"`
}

// OnlineStore 在线用户与令牌黑名单存储
type OnlineStore struct {
	client redis.UniversalClient
}

// NewOnlineStore 创建在线用户存储
func NewOnlineStore(client redis.UniversalClient) *OnlineStore {
	return &OnlineStore{client: client}
}

func onlineUserKey(token string) string {
	return onlineUserKeyPrefix + token
}

func blacklistKey(token string) string {
	return blacklistKeyPrefix + token
}

// Save 写入在线用户记录，ttl 与访问令牌有效期对齐
func (s *OnlineStore) Save(ctx context.Context, token string, record *OnlineUserRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("序列化在线用户记录失败: %w", err)
	}
	if err := s.client.Set(ctx, onlineUserKey(token), data, ttl).Err(); err != nil {
		return fmt.Errorf("写入在线用户记录失败: %w", err)
	}
	return nil
}

// Get 读取在线用户记录，不存在返回 (nil, nil)
func (s *OnlineStore) Get(ctx context.Context, token string) (*OnlineUserRecord, error) {
	data, err := s.client.Get(ctx, onlineUserKey(token)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取在线用户记录失败: %w", err)
	}
	var record OnlineUserRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("解析在线用户记录失败: %w", err)
	}
	return &record, nil
}

// Exists 在线记录是否存在（被删除即视为强制下线）
func (s *OnlineStore) Exists(ctx context.Context, token string) (bool, error) {
	count, err := s.client.Exists(ctx, onlineUserKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("查询在线用户记录失败: %w", err)
	}
	return count > 0, nil
}

// Delete 删除指定令牌的在线记录
func (s *OnlineStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, onlineUserKey(token)).Err()
}

// DeleteByUserID 删除某个用户的全部在线记录（踢人下线）
func (s *OnlineStore) DeleteByUserID(ctx context.Context, userID int64) error {
	iter := s.client.Scan(ctx, 0, onlineUserKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var record OnlineUserRecord
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}
		if record.UserID == userID {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				return fmt.Errorf("删除在线用户记录失败: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("扫描在线用户记录失败: %w", err)
	}
	return nil
}

// LastActiveTime 在线记录的剩余有效期推算出的最近活跃信息。
// 记录不存在返回零值时间。
func (s *OnlineStore) LastActiveTime(ctx context.Context, token string) (time.Time, error) {
	record, err := s.Get(ctx, token)
	if err != nil {
		return time.Time{}, err
	}
	if record == nil {
		return time.Time{}, nil
	}
	return record.LoginTime, nil
}

// Blacklist 将令牌加入黑名单，ttl 为令牌剩余有效期
func (s *OnlineStore) Blacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // 令牌已过期，无需拉黑
	}
	if err := s.client.Set(ctx, blacklistKey(token), "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("加入令牌黑名单失败: %w", err)
	}
	return nil
}

// IsBlacklisted 令牌是否已被拉黑
func (s *OnlineStore) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	count, err := s.client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("查询令牌黑名单失败: %w", err)
	}
	return count > 0, nil
}
