package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestActionPolicies(t *testing.T) {
	cases := []struct {
		action RateAction
		limit  int
	}{
		{ActionCreateJob, 5},
		{ActionSendApplication, 20},
		{ActionSendMessage, 100},
	}
	for _, c := range cases {
		p, ok := actionPolicies[c.action]
		if !ok {
			t.Fatalf("no policy for %s", c.action)
		}
		if p.Limit != c.limit {
			t.Errorf("policy %s limit = %d, want %d", c.action, p.Limit, c.limit)
		}
		if p.Window != 24*time.Hour {
			t.Errorf("policy %s window = %v, want 24h", c.action, p.Window)
		}
	}
}

func TestActionLimitKey(t *testing.T) {
	id := uuid.New()
	key := actionLimitKey(id, ActionSendMessage)
	if !strings.HasPrefix(key, "actionlimit:send_message:") {
		t.Errorf("actionLimitKey() = %q, want actionlimit:send_message: prefix", key)
	}
	if !strings.HasSuffix(key, id.String()) {
		t.Errorf("actionLimitKey() = %q, want %s suffix", key, id)
	}
}

func TestStatusFromCount(t *testing.T) {
	p := actionPolicy{Limit: 5, Window: 24 * time.Hour}
	reset := time.Now().Add(time.Hour)

	cases := []struct {
		count     int64
		allowed   bool
		remaining int
	}{
		{1, true, 4},
		{5, true, 0},
		{6, false, 0},
		{100, false, 0},
	}
	for _, c := range cases {
		got := statusFromCount(p, c.count, reset)
		if got.Allowed != c.allowed {
			t.Errorf("statusFromCount(count=%d) allowed = %v, want %v", c.count, got.Allowed, c.allowed)
		}
		if got.Remaining != c.remaining {
			t.Errorf("statusFromCount(count=%d) remaining = %d, want %d", c.count, got.Remaining, c.remaining)
		}
		if got.Limit != 5 || !got.ResetAt.Equal(reset) {
			t.Errorf("statusFromCount(count=%d) limit/reset wrong: %+v", c.count, got)
		}
	}
}

func TestFailOpenStatus(t *testing.T) {
	p := actionPolicy{Limit: 20, Window: 24 * time.Hour}
	now := time.Now().UTC()

	got := failOpenStatus(p, now)
	if !got.Allowed {
		t.Error("failOpenStatus() allowed = false, want true")
	}
	if got.Remaining != 20 || got.Limit != 20 {
		t.Errorf("failOpenStatus() remaining/limit = %d/%d, want 20/20", got.Remaining, got.Limit)
	}
	if !got.ResetAt.Equal(now.Add(24 * time.Hour)) {
		t.Errorf("failOpenStatus() resetAt = %v, want now+24h", got.ResetAt)
	}
}

// With no Redis client configured the limiter must fail open rather than
// block the caller's action.
func TestCheckAndConsume_FailOpenWithoutRedis(t *testing.T) {
	got := CheckAndConsumeActionLimit(context.Background(), uuid.New(), ActionCreateJob)
	if !got.Allowed {
		t.Error("CheckAndConsumeActionLimit() without Redis: allowed = false, want true (fail open)")
	}
	if got.Remaining != 5 {
		t.Errorf("CheckAndConsumeActionLimit() without Redis: remaining = %d, want full limit 5", got.Remaining)
	}

	peek := PeekActionLimit(context.Background(), uuid.New(), ActionCreateJob)
	if !peek.Allowed || peek.Remaining != 5 {
		t.Errorf("PeekActionLimit() without Redis = %+v, want full allowance", peek)
	}
}

func TestUnknownActionAllowed(t *testing.T) {
	got := CheckAndConsumeActionLimit(context.Background(), uuid.New(), RateAction("unknown"))
	if !got.Allowed {
		t.Error("CheckAndConsumeActionLimit(unknown action) allowed = false, want true")
	}
}
