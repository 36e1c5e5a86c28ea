package module_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/courier/pkg/module"
	"github.com/JaimeStill/courier/pkg/routes"
)

func apiModule() *module.Module {
	mux := http.NewServeMux()
	routes.Register(mux, routes.Group{
		Prefix: "/queue",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte("queue list"))
			}},
			{Method: "GET", Pattern: "/{id}/text", Handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("text for " + r.PathValue("id")))
			}},
		},
	})
	return module.New("/api", mux)
}

func TestRouterDispatch(t *testing.T) {
	router := module.NewRouter()
	router.Mount(apiModule())
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	tests := []struct {
		name     string
		path     string
		expected int
		body     string
	}{
		{"module route", "/api/queue", http.StatusOK, "queue list"},
		{"module route with path value", "/api/queue/42/text", http.StatusOK, "text for 42"},
		{"trailing slash normalized", "/api/queue/", http.StatusOK, "queue list"},
		{"native fallback", "/healthz", http.StatusOK, "ok"},
		{"unknown module path", "/api/nothing", http.StatusNotFound, ""},
		{"unknown native path", "/missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, r)

			if w.Code != tt.expected {
				t.Fatalf("status = %d, expected %d", w.Code, tt.expected)
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Errorf("body = %q, expected %q", w.Body.String(), tt.body)
			}
		})
	}
}

func TestModuleMiddleware(t *testing.T) {
	m := apiModule()
	m.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Module", "api")
			next.ServeHTTP(w, r)
		})
	})

	router := module.NewRouter()
	router.Mount(m)

	r := httptest.NewRequest("GET", "/api/queue", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if got := w.Header().Get("X-Module"); got != "api" {
		t.Errorf("X-Module = %q, expected middleware applied", got)
	}
}

func TestNewPrefixValidation(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		panics bool
	}{
		{"valid", "/api", false},
		{"empty", "", true},
		{"missing slash", "api", true},
		{"multi level", "/api/v1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				recovered := recover() != nil
				if recovered != tt.panics {
					t.Errorf("panicked = %t, expected %t", recovered, tt.panics)
				}
			}()
			module.New(tt.prefix, http.NewServeMux())
		})
	}
}
