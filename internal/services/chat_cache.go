package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/worklane/worklane-backend/internal/database"
	"github.com/worklane/worklane-backend/internal/models"
)

const (
	chatRecentKeyPrefix = "chat:conv:"
	chatRecentKeySuffix = ":recent"
	chatRecentMaxLen    = 50
	chatRecentTTL       = 1 * time.Hour
)

func chatRecentKey(convID string) string {
	return chatRecentKeyPrefix + convID + chatRecentKeySuffix
}

// PushMessageToRecentCache adds a message to the Redis recent cache (newest
// at head). Call after saving to Mongo. LPUSH + LTRIM keeps last 50.
func PushMessageToRecentCache(msg models.ChatMessage) {
	if database.RedisClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := chatRecentKey(msg.ConversationID)
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	pipe := database.RedisClient.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, chatRecentMaxLen-1)
	pipe.Expire(ctx, key, chatRecentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("chat_cache: push failed for conversation %s: %v", msg.ConversationID, err)
	}
}

// InvalidateRecentCache drops the cached page for a conversation. Called
// after mark-read, since cached copies carry the old read flags.
func InvalidateRecentCache(convID string) {
	if database.RedisClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	database.RedisClient.Del(ctx, chatRecentKey(convID))
}

// getRecentMessagesFromCache returns the cached page (oldest-first).
// Only valid for initial loads. Returns (nil, false) on miss.
func getRecentMessagesFromCache(ctx context.Context, convID string) ([]models.ChatMessage, bool) {
	if database.RedisClient == nil {
		return nil, false
	}

	raw, err := database.RedisClient.LRange(ctx, chatRecentKey(convID), 0, -1).Result()
	if err != nil || len(raw) == 0 {
		return nil, false
	}

	var msgs []models.ChatMessage
	for i := len(raw) - 1; i >= 0; i-- {
		var m models.ChatMessage
		if json.Unmarshal([]byte(raw[i]), &m) != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, true
}

// ListMessagesWithCache returns history for a conversation. For initial
// loads (before==nil) it tries Redis first; on miss it fetches from Mongo
// and warms the cache.
func ListMessagesWithCache(ctx context.Context, convID string, before *time.Time, limit int64) ([]models.ChatMessage, bool, error) {
	if before == nil && limit > 0 && limit <= chatRecentMaxLen {
		if cached, ok := getRecentMessagesFromCache(ctx, convID); ok {
			out := cached
			if int64(len(cached)) > limit {
				out = cached[int64(len(cached))-limit:]
			}
			return out, cachedPageHasMore(int64(len(cached)), limit), nil
		}
	}

	msgs, hasMore, err := ListMessages(ctx, convID, before, limit)
	if err != nil {
		return nil, false, err
	}
	if before == nil && len(msgs) > 0 {
		warmRecentCache(ctx, convID, msgs)
	}
	return msgs, hasMore, nil
}

// cachedPageHasMore reports whether older history may exist beyond a cached
// page. A cache holding exactly limit messages is ambiguous: the thread may
// end right at the boundary, or the cache may have been warmed from a page
// that dropped its has-more sentinel. Ties report true: the cost of
// overstating is one empty follow-up fetch, while understating would hide
// real history.
func cachedPageHasMore(cachedLen, limit int64) bool {
	return cachedLen >= limit
}

// warmRecentCache stores messages in Redis (oldest at tail).
func warmRecentCache(ctx context.Context, convID string, msgs []models.ChatMessage) {
	if database.RedisClient == nil || len(msgs) == 0 {
		return
	}

	key := chatRecentKey(convID)
	pipe := database.RedisClient.Pipeline()
	for i := len(msgs) - 1; i >= 0; i-- {
		data, err := json.Marshal(msgs[i])
		if err != nil {
			continue
		}
		pipe.RPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, 0, chatRecentMaxLen-1)
	pipe.Expire(ctx, key, chatRecentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("chat_cache: warm failed for conversation %s: %v", convID, err)
	}
}
