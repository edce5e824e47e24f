package refreshtokens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/livedesk/internal/common"
	"github.com/dmitrijs2005/livedesk/internal/server/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ExpiredRetention is how long a token hash outlives its expiry in Redis so
// that verification can still tell "expired" from "unknown".
const ExpiredRetention = time.Hour

const (
	rotateStatusNotFound int64 = 0
	rotateStatusExpired  int64 = 1
	rotateStatusConflict int64 = 2
	rotateStatusRotated  int64 = 3
)

// KEYS[1] token hash, KEYS[2] user set.
// ARGV: token, user_id, expires_ms, created_ms, ttl_ms, id
var createLua = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "id", ARGV[6], "user_id", ARGV[2], "expires_at", ARGV[3], "created_at", ARGV[4])
redis.call("PEXPIRE", KEYS[1], ARGV[5])
redis.call("SADD", KEYS[2], ARGV[1])
if redis.call("PTTL", KEYS[2]) < tonumber(ARGV[5]) then
  redis.call("PEXPIRE", KEYS[2], ARGV[5])
end
return 1
`)

// KEYS[1] token hash. ARGV: token, user key prefix
var deleteLua = redis.NewScript(`
local user_id = redis.call("HGET", KEYS[1], "user_id")
if not user_id then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("SREM", ARGV[2] .. user_id, ARGV[1])
return 1
`)

// KEYS[1] old token hash, KEYS[2] new token hash.
// ARGV: old token, new token, user key prefix, now_ms, new_expires_ms, ttl_ms, new_id
var rotateLua = redis.NewScript(`
local data = redis.call("HMGET", KEYS[1], "user_id", "expires_at")
local user_id = data[1]
if not user_id then
  return {0}
end
if redis.call("EXISTS", KEYS[2]) == 1 then
  return {2}
end

local user_key = ARGV[3] .. user_id
redis.call("DEL", KEYS[1])
redis.call("SREM", user_key, ARGV[1])

if tonumber(data[2]) <= tonumber(ARGV[4]) then
  return {1}
end

redis.call("HSET", KEYS[2], "id", ARGV[7], "user_id", user_id, "expires_at", ARGV[5], "created_at", ARGV[4])
redis.call("PEXPIRE", KEYS[2], ARGV[6])
redis.call("SADD", user_key, ARGV[2])
if redis.call("PTTL", user_key) < tonumber(ARGV[6]) then
  redis.call("PEXPIRE", user_key, ARGV[6])
end
return {3, user_id}
`)

// KEYS[1] user set. ARGV: token key prefix
var deleteByUserLua = redis.NewScript(`
local tokens = redis.call("SMEMBERS", KEYS[1])
local n = 0
for _, t in ipairs(tokens) do
  n = n + redis.call("DEL", ARGV[1] .. t)
end
redis.call("DEL", KEYS[1])
return n
`)

// RedisRepository keeps each token in a hash under "<prefix>:t:<token>" and
// indexes tokens per user in a set under "<prefix>:u:<userID>". Every
// multi-key mutation runs as one Lua script.
type RedisRepository struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisRepository constructs a repository using rdb and a key prefix
// ("rt" when empty).
func NewRedisRepository(rdb redis.UniversalClient, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "rt"
	}
	return &RedisRepository{rdb: rdb, prefix: prefix}
}

func (r *RedisRepository) tokenPrefix() string { return r.prefix + ":t:" }
func (r *RedisRepository) userPrefix() string  { return r.prefix + ":u:" }

func (r *RedisRepository) tokenKey(token string) string { return r.tokenPrefix() + token }
func (r *RedisRepository) userKey(userID string) string { return r.userPrefix() + userID }

func retentionTTL(expiresAt, from time.Time) int64 {
	ttl := expiresAt.Sub(from)
	if ttl < 0 {
		ttl = 0
	}
	return (ttl + ExpiredRetention).Milliseconds()
}

// Create stores token with a key TTL of its remaining life plus ExpiredRetention.
func (r *RedisRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	res, err := createLua.Run(ctx, r.rdb,
		[]string{r.tokenKey(token.Token), r.userKey(token.UserID)},
		token.Token, token.UserID, token.ExpiresAt.UnixMilli(), token.CreatedAt.UnixMilli(),
		retentionTTL(token.ExpiresAt, token.CreatedAt), token.ID,
	).Int64()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if res == 0 {
		return common.ErrorAlreadyExists
	}
	return nil
}

// Find reads the token hash.
func (r *RedisRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	fields, err := r.rdb.HGetAll(ctx, r.tokenKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(fields) == 0 {
		return nil, common.ErrorNotFound
	}

	expires, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt token record: %w", err)
	}
	created, _ := strconv.ParseInt(fields["created_at"], 10, 64)

	return &models.RefreshToken{
		ID:        fields["id"],
		UserID:    fields["user_id"],
		Token:     token,
		ExpiresAt: time.UnixMilli(expires),
		CreatedAt: time.UnixMilli(created),
	}, nil
}

// Delete removes the token and its user index entry.
func (r *RedisRepository) Delete(ctx context.Context, token string) error {
	if err := deleteLua.Run(ctx, r.rdb, []string{r.tokenKey(token)}, token, r.userPrefix()).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

// Rotate consumes oldToken and stores next in one script execution.
func (r *RedisRepository) Rotate(ctx context.Context, oldToken string, next *models.RefreshToken, now time.Time) (string, error) {
	if next.ID == "" {
		next.ID = uuid.NewString()
	}
	next.CreatedAt = now

	res, err := rotateLua.Run(ctx, r.rdb,
		[]string{r.tokenKey(oldToken), r.tokenKey(next.Token)},
		oldToken, next.Token, r.userPrefix(), now.UnixMilli(), next.ExpiresAt.UnixMilli(),
		retentionTTL(next.ExpiresAt, now), next.ID,
	).Slice()
	if err != nil {
		return "", fmt.Errorf("redis error: %w", err)
	}
	if len(res) == 0 {
		return "", errors.New("redis error: empty rotate reply")
	}

	status, _ := res[0].(int64)
	switch status {
	case rotateStatusNotFound:
		return "", common.ErrorNotFound
	case rotateStatusExpired:
		return "", common.ErrRefreshTokenExpired
	case rotateStatusConflict:
		return "", common.ErrorAlreadyExists
	case rotateStatusRotated:
		if len(res) < 2 {
			return "", errors.New("redis error: rotate reply without user")
		}
		userID, _ := res[1].(string)
		next.UserID = userID
		return userID, nil
	default:
		return "", fmt.Errorf("redis error: unexpected rotate status %d", status)
	}
}

// DeleteByUser removes every token in the user's index in one script.
func (r *RedisRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	n, err := deleteByUserLua.Run(ctx, r.rdb, []string{r.userKey(userID)}, r.tokenPrefix()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis error: %w", err)
	}
	return n, nil
}

// DeleteExpired scans token hashes and deletes those expired at or before
// now. Keys also age out on their own after ExpiredRetention; this keeps the
// per-user indexes tidy in between.
func (r *RedisRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var (
		cursor  uint64
		deleted int64
	)
	prefix := r.tokenPrefix()

	for {
		keys, nextCursor, err := r.rdb.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("redis error: %w", err)
		}

		for _, key := range keys {
			raw, err := r.rdb.HGet(ctx, key, "expires_at").Result()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return deleted, fmt.Errorf("redis error: %w", err)
			}
			expires, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || expires > now.UnixMilli() {
				continue
			}

			token := key[len(prefix):]
			n, err := deleteLua.Run(ctx, r.rdb, []string{key}, token, r.userPrefix()).Int64()
			if err != nil {
				return deleted, fmt.Errorf("redis error: %w", err)
			}
			deleted += n
		}

		cursor = nextCursor
		if cursor == 0 {
			return deleted, nil
		}
	}
}
