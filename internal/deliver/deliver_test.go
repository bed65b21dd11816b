package deliver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mathlens/snaptrack/internal/event"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

type failingToken struct{}

func (failingToken) Token() (string, error) { return "", errors.New("keychain unavailable") }

func TestDeliverSuccess(t *testing.T) {
	var gotAuth string
	var gotBody event.Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, staticToken("tok-123"))
	ev := event.New("app_launch", map[string]any{"screen": "Chat"})

	if err := c.Deliver(context.Background(), ev); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody.Name != "app_launch" {
		t.Errorf("delivered event name = %q", gotBody.Name)
	}
}

func TestDeliverNon2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	if err := c.Deliver(context.Background(), event.New("app_launch", nil)); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestDeliverNetworkErrorIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // endpoint unreachable

	c := NewClient(srv.URL, time.Second, nil)
	if err := c.Deliver(context.Background(), event.New("app_launch", nil)); err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}
}

func TestDeliverWithoutCredentialIsUnauthenticated(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// A failing provider must degrade to an unauthenticated request.
	c := NewClient(srv.URL, time.Second, failingToken{})
	if err := c.Deliver(context.Background(), event.New("app_launch", nil)); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
}

func TestDeliverHonorsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() { close(release); srv.Close() }()

	c := NewClient(srv.URL, 50*time.Millisecond, nil)
	start := time.Now()
	err := c.Deliver(context.Background(), event.New("app_launch", nil))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("delivery blocked for %v despite timeout", elapsed)
	}
}
