package owner

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareStoresOwner(t *testing.T) {
	var got string
	h := Middleware(Static(" 1 "))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/transactions", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got != "1" {
		t.Fatalf("owner = %q, want %q", got, "1")
	}
}

func TestMiddlewareRejectsUnresolved(t *testing.T) {
	called := false
	h := Middleware(Static(""))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/transactions", nil))

	if called {
		t.Fatal("handler called without an owner")
	}
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestFromContextEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := FromContext(req.Context()); got != "" {
		t.Fatalf("owner = %q, want empty", got)
	}
}
