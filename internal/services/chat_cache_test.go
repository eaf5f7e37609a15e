package services

import "testing"

func TestCachedPageHasMore(t *testing.T) {
	cases := []struct {
		cached, limit int64
		want          bool
	}{
		{0, 50, false},
		{10, 50, false}, // short thread, cache holds everything
		{49, 50, false},
		{50, 50, true}, // boundary is ambiguous; must not understate
		{51, 50, true},
	}
	for _, c := range cases {
		if got := cachedPageHasMore(c.cached, c.limit); got != c.want {
			t.Errorf("cachedPageHasMore(%d, %d) = %v, want %v", c.cached, c.limit, got, c.want)
		}
	}
}
