package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"postline/app/schedule"
)

func newTestClient(url, token string) *Client {
	return NewClient(EndpointConfig{URL: url, Token: token}, 5*time.Second)
}

func TestPublish_Success(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "ext-123"}`))
	}))
	defer server.Close()

	id, err := newTestClient(server.URL, "secret-token").Publish(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	if id != "ext-123" {
		t.Errorf("Expected external id ext-123, got %q", id)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Expected bearer token header, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("Expected JSON content type, got %q", gotContentType)
	}
	if gotBody["content"] != "hello world" {
		t.Errorf("Expected content in request body, got %v", gotBody)
	}
}

func TestPublish_NoAuthorizationHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"id": "ext-1"}`))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL, "").Publish(context.Background(), "hello"); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Expected no Authorization header, got %q", gotAuth)
	}
}

func TestPublish_StatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		kind      schedule.FailureKind
		retryable bool
	}{
		{http.StatusUnauthorized, schedule.FailureAuthRevoked, false},
		{http.StatusForbidden, schedule.FailureAuthRevoked, false},
		{http.StatusBadRequest, schedule.FailureInvalidContent, false},
		{http.StatusUnprocessableEntity, schedule.FailureInvalidContent, false},
		{http.StatusTooManyRequests, schedule.FailureRateLimited, true},
		{http.StatusRequestTimeout, schedule.FailureTimeout, true},
		{http.StatusInternalServerError, schedule.FailureServerError, true},
		{http.StatusBadGateway, schedule.FailureServerError, true},
		{http.StatusNotFound, schedule.FailureRejected, false},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		_, err := newTestClient(server.URL, "t").Publish(context.Background(), "hello")
		server.Close()

		if err == nil {
			t.Errorf("Status %d: expected error", tt.status)
			continue
		}
		var pubErr *schedule.PublishError
		if !errors.As(err, &pubErr) {
			t.Errorf("Status %d: expected *PublishError, got %T", tt.status, err)
			continue
		}
		if pubErr.Kind != tt.kind {
			t.Errorf("Status %d: expected kind %s, got %s", tt.status, tt.kind, pubErr.Kind)
		}
		if pubErr.Kind.Retryable() != tt.retryable {
			t.Errorf("Status %d: expected retryable=%v", tt.status, tt.retryable)
		}
	}
}

func TestPublish_MissingIDInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, "t").Publish(context.Background(), "hello")
	if err == nil {
		t.Fatal("Expected error for response without id")
	}
	var pubErr *schedule.PublishError
	if !errors.As(err, &pubErr) || pubErr.Kind != schedule.FailureServerError {
		t.Errorf("Expected server error kind, got %v", err)
	}
}

func TestPublish_MalformedResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, "t").Publish(context.Background(), "hello")
	if err == nil {
		t.Fatal("Expected error for malformed response")
	}
	var pubErr *schedule.PublishError
	if !errors.As(err, &pubErr) || pubErr.Kind != schedule.FailureServerError {
		t.Errorf("Expected server error kind, got %v", err)
	}
}

func TestPublish_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := newTestClient(server.URL, "t").Publish(context.Background(), "hello")
	if err == nil {
		t.Fatal("Expected error for unreachable endpoint")
	}
	var pubErr *schedule.PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("Expected *PublishError, got %T", err)
	}
	if pubErr.Kind != schedule.FailureNetwork {
		t.Errorf("Expected network kind, got %s", pubErr.Kind)
	}
	if !pubErr.Kind.Retryable() {
		t.Error("Expected network failure to be retryable")
	}
}

func TestPublish_ContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"id": "ext-1"}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server.URL, "t").Publish(ctx, "hello")
	if err == nil {
		t.Fatal("Expected error for timed out request")
	}
	var pubErr *schedule.PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("Expected *PublishError, got %T", err)
	}
	if pubErr.Kind != schedule.FailureTimeout {
		t.Errorf("Expected timeout kind, got %s", pubErr.Kind)
	}
}

func TestRegistry_RoutesByPlatform(t *testing.T) {
	var linkedinHits, xHits int
	linkedin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		linkedinHits++
		w.Write([]byte(`{"id": "li-1"}`))
	}))
	defer linkedin.Close()
	x := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		xHits++
		w.Write([]byte(`{"id": "x-1"}`))
	}))
	defer x.Close()

	registry := NewRegistry(&Config{Platforms: map[string]EndpointConfig{
		"linkedin": {URL: linkedin.URL},
		"x":        {URL: x.URL},
	}}, 5*time.Second)

	id, err := registry.Publish(context.Background(), schedule.PlatformX, "hello")
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if id != "x-1" || xHits != 1 || linkedinHits != 0 {
		t.Errorf("Expected x endpoint hit once, got id=%q x=%d linkedin=%d", id, xHits, linkedinHits)
	}
}

func TestRegistry_UnconfiguredPlatform(t *testing.T) {
	registry := NewRegistry(&Config{Platforms: map[string]EndpointConfig{}}, time.Second)

	_, err := registry.Publish(context.Background(), schedule.PlatformLinkedIn, "hello")
	if err == nil {
		t.Fatal("Expected error for unconfigured platform")
	}
	var pubErr *schedule.PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("Expected *PublishError, got %T", err)
	}
	if pubErr.Kind.Retryable() {
		t.Error("Expected unconfigured platform failure to be permanent")
	}
}
