package eventstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPStoreGetEvents(t *testing.T) {
	var tokenCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	})
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req["dataset"] != "events" {
			http.Error(w, "bad dataset", http.StatusBadRequest)
			return
		}
		keys := req["filter_keys"].(map[string]any)
		if _, ok := keys["group_id"]; !ok {
			http.Error(w, "missing group filter", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"project_id":1,"group_id":7,"event_id":"e1","timestamp":"2024-01-01T00:00:00Z"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ts, err := NewPasswordTokenSource(PasswordTokenConfig{Endpoint: srv.URL + "/auth", Username: "u", Password: "p"})
	if err != nil {
		t.Fatalf("token source error: %v", err)
	}
	client, err := NewHTTPStore(HTTPConfig{BaseURL: srv.URL + "/", TokenSource: ts})
	if err != nil {
		t.Fatalf("NewHTTPStore error: %v", err)
	}

	for i := 0; i < 2; i++ {
		events, err := client.GetEvents(context.Background(),
			Filter{ProjectIDs: []int64{1}, GroupIDs: []int64{7}},
			QueryOptions{OrderBy: []string{"-timestamp"}, Limit: 10, Referrer: "deletions.group"})
		if err != nil {
			t.Fatalf("GetEvents error: %v", err)
		}
		if len(events) != 1 || events[0].EventID != "e1" || events[0].GroupID != 7 {
			t.Fatalf("unexpected events: %+v", events)
		}
		if !events[0].Timestamp.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("unexpected timestamp: %v", events[0].Timestamp)
		}
	}
	if n := atomic.LoadInt32(&tokenCalls); n != 1 {
		t.Fatalf("token should be cached, fetched %d times", n)
	}
}

func TestHTTPStoreErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewHTTPStore(HTTPConfig{BaseURL: srv.URL, TokenSource: &StaticTokenSource{Value: "x"}})
	if err != nil {
		t.Fatalf("NewHTTPStore error: %v", err)
	}
	if _, err := client.GetEvents(context.Background(), Filter{}, QueryOptions{}); err == nil {
		t.Fatalf("expected error on 502")
	}
}

func TestPasswordTokenSourceRefreshesBeforeExpiry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "t", "expires_in": 60})
	}))
	defer srv.Close()

	ts, err := NewPasswordTokenSource(PasswordTokenConfig{Endpoint: srv.URL, Username: "u", Password: "p"})
	if err != nil {
		t.Fatalf("token source error: %v", err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return now }

	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("Token error: %v", err)
	}
	now = now.Add(20 * time.Second)
	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("Token error: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected cached token, calls=%d", n)
	}
	now = now.Add(15 * time.Second)
	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("Token error: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected refresh within 30s of expiry, calls=%d", n)
	}
}

func TestNewHTTPStoreRequiresBaseURL(t *testing.T) {
	if _, err := NewHTTPStore(HTTPConfig{}); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}
