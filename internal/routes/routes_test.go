package routes

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Every registered route must survive a chi walk; a broken pattern (bad
// placeholder, duplicate registration) panics at mount time.
func TestSetupRoutes(t *testing.T) {
	r := chi.NewRouter()
	SetupRoutes(r)

	var routes []string
	err := chi.Walk(r, func(method, route string, handler http.Handler, mw ...func(http.Handler) http.Handler) error {
		routes = append(routes, method+" "+route)
		return nil
	})
	if err != nil {
		t.Fatalf("walking routes: %v", err)
	}

	want := []string{
		"POST /api/auth/signup",
		"POST /api/auth/signin",
		"GET /api/jobs",
		"POST /api/jobs/{jobID}/applications",
		"GET /api/chat/conversations",
		"POST /api/chat/conversations/{conversationID}/messages",
		"GET /ws/chat",
		"GET /ws/inbox",
		"GET /api/notifications",
		"PUT /api/admin/jobs/{jobID}/review",
	}
	have := make(map[string]bool, len(routes))
	for _, rt := range routes {
		have[rt] = true
	}
	for _, w := range want {
		if !have[w] {
			t.Errorf("route %q not registered", w)
		}
	}
}
