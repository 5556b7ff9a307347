package httpserver

import (
	"bufio"
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// readEvent returns the next "cart-updated" data payload from the stream.
func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "" && event != "":
			if event != "cart-updated" {
				t.Fatalf("unexpected event %q", event)
			}
			return data
		}
	}
}

func TestCartEventsStream(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar}

	resp, err := client.Get(srv.URL + "/api/cart/count")
	if err != nil {
		t.Fatalf("prime visitor: %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/cart/events", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	stream, err := client.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer stream.Body.Close()

	if ct := stream.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}
	reader := bufio.NewReader(stream.Body)

	if got := readEvent(t, reader); got != `{"count":0,"total":0}` {
		t.Fatalf("unexpected initial event %s", got)
	}

	add, err := client.Post(srv.URL+"/api/cart/items", "application/json", strings.NewReader(`{"id":1,"name":"A","price":100}`))
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	add.Body.Close()

	if got := readEvent(t, reader); got != `{"count":1,"total":100}` {
		t.Fatalf("unexpected update event %s", got)
	}

	if env.visitors.Len() != 1 {
		t.Fatalf("stream and mutation should share one visitor, got %d", env.visitors.Len())
	}
}

func TestCartEventsUnsubscribeOnDisconnect(t *testing.T) {
	env := newTestEnvWith(t, fixedVisitor("v1"))
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/cart/events", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	stream, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	readEvent(t, bufio.NewReader(stream.Body))

	store := env.visitors.Cart("v1")
	if store.Subscribers() != 1 {
		t.Fatalf("expected one subscriber, got %d", store.Subscribers())
	}

	cancel()
	stream.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for store.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("stream listener was not removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
