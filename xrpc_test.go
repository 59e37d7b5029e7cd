package bluesky

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestXRPCClient(server *httptest.Server) *xrpcClient {
	return &xrpcClient{
		baseURL:    server.URL,
		identifier: "alice.example.com",
		password:   "app-password",
		httpClient: server.Client(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestXRPCSession(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/xrpc/com.atproto.server.createSession" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["identifier"] != "alice.example.com" || body["password"] != "app-password" {
			t.Errorf("credentials: got %v", body)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"accessJwt": "jwt-123",
			"did":       "did:plc:alice",
			"handle":    "alice.example.com",
		})
	}))
	defer server.Close()

	session, err := newTestXRPCClient(server).Session(context.Background())
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if session.AccessJwt != "jwt-123" || session.DID != "did:plc:alice" {
		t.Errorf("session: got %+v", session)
	}
}

func TestXRPCSessionFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"AuthenticationRequired"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestXRPCClient(server).Session(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Session: got %v, want APIError 401", err)
	}
}

func TestXRPCResolveHandle(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/xrpc/com.atproto.identity.resolveHandle" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		// The leading @ must be stripped before the wire.
		if got := r.URL.Query().Get("handle"); got != "bob.example.com" {
			t.Errorf("handle param: got %q, want bob.example.com", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"did": "did:plc:bob"})
	}))
	defer server.Close()

	did, err := newTestXRPCClient(server).ResolveHandle(context.Background(), "@bob.example.com")
	if err != nil {
		t.Fatalf("ResolveHandle: %v", err)
	}
	if did != "did:plc:bob" {
		t.Errorf("did: got %q, want did:plc:bob", did)
	}
}

func TestXRPCResolveHandleFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"InvalidRequest"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestXRPCClient(server).ResolveHandle(context.Background(), "nobody.example.com")
	if err == nil {
		t.Fatal("ResolveHandle: got nil, want error")
	}
}

func TestXRPCUploadBlob(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/xrpc/com.atproto.repo.uploadBlob" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "image/png" {
			t.Errorf("content-type: got %q, want image/png", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer jwt-123" {
			t.Errorf("authorization: got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "png-bytes" {
			t.Errorf("body: got %q", body)
		}
		w.Write([]byte(`{"blob":{"$type":"blob","ref":{"$link":"bafyrei-abc"},"mimeType":"image/png","size":9}}`))
	}))
	defer server.Close()

	blob, err := newTestXRPCClient(server).UploadBlob(context.Background(), "jwt-123", []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("UploadBlob: %v", err)
	}
	if blob.Ref.Link != "bafyrei-abc" {
		t.Errorf("blob link: got %q", blob.Ref.Link)
	}
	if blob.MimeType != "image/png" || blob.Size != 9 {
		t.Errorf("blob: got %+v", blob)
	}
}

func TestXRPCCreateRecord(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/xrpc/com.atproto.repo.createRecord" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer jwt-123" {
			t.Errorf("authorization: got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"uri":"at://did:plc:alice/app.bsky.feed.post/3kabc","cid":"bafy"}`))
	}))
	defer server.Close()

	record := map[string]string{"$type": "app.bsky.feed.post", "text": "hi"}
	err := newTestXRPCClient(server).CreateRecord(context.Background(), "jwt-123", "did:plc:alice", "app.bsky.feed.post", record)
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	if captured["repo"] != "did:plc:alice" {
		t.Errorf("repo: got %v", captured["repo"])
	}
	if captured["collection"] != "app.bsky.feed.post" {
		t.Errorf("collection: got %v", captured["collection"])
	}
	if rec, ok := captured["record"].(map[string]any); !ok || rec["text"] != "hi" {
		t.Errorf("record: got %v", captured["record"])
	}
}

func TestXRPCCreateRecordFailureNotRetried(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"InternalServerError"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	err := newTestXRPCClient(server).CreateRecord(context.Background(), "jwt", "did:plc:a", "app.bsky.feed.post", map[string]string{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("CreateRecord: got %v, want APIError 500", err)
	}
	if calls != 1 {
		t.Errorf("requests: got %d, want 1", calls)
	}
}
