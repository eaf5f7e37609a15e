package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/worklane/worklane-backend/internal/database"
)

// RateAction identifies a throttled user action.
type RateAction string

const (
	ActionCreateJob       RateAction = "create_job"
	ActionSendApplication RateAction = "send_application"
	ActionSendMessage     RateAction = "send_message"

	actionLimitKeyPrefix = "actionlimit:"
)

type actionPolicy struct {
	Limit  int
	Window time.Duration
}

// Per-action limits. Compile-time constants, not dynamic policy.
var actionPolicies = map[RateAction]actionPolicy{
	ActionCreateJob:       {Limit: 5, Window: 24 * time.Hour},
	ActionSendApplication: {Limit: 20, Window: 24 * time.Hour},
	ActionSendMessage:     {Limit: 100, Window: 24 * time.Hour},
}

// RateLimitStatus is the outcome of a limiter call. Allowed=false is a
// normal result, not an error; the handler returns 429 with ResetAt.
type RateLimitStatus struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	ResetAt   time.Time `json:"reset_at"`
}

func actionLimitKey(userID uuid.UUID, action RateAction) string {
	return actionLimitKeyPrefix + string(action) + ":" + userID.String()
}

// failOpenStatus is returned whenever Redis is unreachable: the limiter is a
// defense-in-depth measure, not a correctness requirement, so the action is
// allowed and no counter is touched.
func failOpenStatus(p actionPolicy, now time.Time) RateLimitStatus {
	return RateLimitStatus{
		Allowed:   true,
		Remaining: p.Limit,
		Limit:     p.Limit,
		ResetAt:   now.Add(p.Window),
	}
}

// statusFromCount derives the limiter outcome from the fixed-window counter.
func statusFromCount(p actionPolicy, count int64, resetAt time.Time) RateLimitStatus {
	remaining := p.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitStatus{
		Allowed:   count <= int64(p.Limit),
		Remaining: remaining,
		Limit:     p.Limit,
		ResetAt:   resetAt,
	}
}

// CheckAndConsumeActionLimit atomically tests the fixed-window limit and
// records one more use when allowed. The INCR/EXPIRE pair runs server-side
// in Redis, so no client-side locking is needed.
func CheckAndConsumeActionLimit(ctx context.Context, userID uuid.UUID, action RateAction) RateLimitStatus {
	p, ok := actionPolicies[action]
	if !ok {
		// Unknown action: nothing to throttle.
		return RateLimitStatus{Allowed: true}
	}

	now := time.Now().UTC()
	if database.RedisClient == nil {
		return failOpenStatus(p, now)
	}

	key := actionLimitKey(userID, action)

	count, err := database.RedisClient.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("ratelimit: incr failed for %s: %v (failing open)", key, err)
		return failOpenStatus(p, now)
	}
	if count == 1 {
		// First hit of the window starts the clock.
		if err := database.RedisClient.Expire(ctx, key, p.Window).Err(); err != nil {
			log.Printf("ratelimit: expire failed for %s: %v", key, err)
		}
	}

	resetAt := now.Add(p.Window)
	if ttl, err := database.RedisClient.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		resetAt = now.Add(ttl)
	}

	return statusFromCount(p, count, resetAt)
}

// PeekActionLimit reads the current window without consuming a use. On any
// Redis error the default snapshot shows a full allowance with a reset
// computed client-side as now + window.
func PeekActionLimit(ctx context.Context, userID uuid.UUID, action RateAction) RateLimitStatus {
	p, ok := actionPolicies[action]
	if !ok {
		return RateLimitStatus{Allowed: true}
	}

	now := time.Now().UTC()
	if database.RedisClient == nil {
		return failOpenStatus(p, now)
	}

	key := actionLimitKey(userID, action)

	count, err := database.RedisClient.Get(ctx, key).Int64()
	if err != nil {
		// Missing key or transport error: full allowance either way.
		return failOpenStatus(p, now)
	}

	resetAt := now.Add(p.Window)
	if ttl, err := database.RedisClient.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		resetAt = now.Add(ttl)
	}

	status := statusFromCount(p, count, resetAt)
	// Peek reports whether the NEXT action would be allowed.
	status.Allowed = count < int64(p.Limit)
	return status
}
