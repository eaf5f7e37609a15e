package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/worklane/worklane-backend/pkg/clientip"
	"golang.org/x/time/rate"
)

// Message history rate limit: per-IP, 30 req/min with burst 20.
// High enough that paging through conversations never trips it, low enough
// to stop scraping of chat history.

const (
	historyRPS        = 0.5 // 30/min
	historyBurst      = 20
	historyCleanupMin = 5 * time.Minute
	historyLimiterTTL = 30 * time.Minute
)

var (
	historyEntries    = make(map[string]*limiterEntry)
	historyEntriesMu  sync.Mutex
	historyCleanupRun bool
)

func getHistoryLimiter(ip string) *rate.Limiter {
	historyEntriesMu.Lock()
	defer historyEntriesMu.Unlock()
	startHistoryCleanupOnce()

	e, ok := historyEntries[ip]
	if !ok {
		e = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(historyRPS), historyBurst),
			lastUse: time.Now(),
		}
		historyEntries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func startHistoryCleanupOnce() {
	if historyCleanupRun {
		return
	}
	historyCleanupRun = true
	go func() {
		ticker := time.NewTicker(historyCleanupMin)
		defer ticker.Stop()
		for range ticker.C {
			historyEntriesMu.Lock()
			now := time.Now()
			for k, e := range historyEntries {
				if now.Sub(e.lastUse) > historyLimiterTTL {
					delete(historyEntries, k)
				}
			}
			historyEntriesMu.Unlock()
		}
	}()
}

// MessageHistoryRateLimit throttles GET requests under /api/chat/.
// Returns 429 with limit headers when exceeded.
func MessageHistoryRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !strings.HasPrefix(r.URL.Path, "/api/chat/") {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientip.RealClientIP(r)
		if !getHistoryLimiter(ip).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(historyBurst))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Too many chat history requests. Please slow down."}`))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(historyBurst))
		next.ServeHTTP(w, r)
	})
}
