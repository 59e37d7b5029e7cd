package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// xrpcClient talks to the service's XRPC endpoints over plain HTTP. It is the
// default implementation of SessionSource, HandleResolver, BlobUploader, and
// RecordCreator.
type xrpcClient struct {
	baseURL    string
	identifier string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
}

// Session authenticates with the configured identifier and password via
// com.atproto.server.createSession. Use an app password, not the account
// password.
func (c *xrpcClient) Session(ctx context.Context) (*Session, error) {
	body := map[string]string{
		"identifier": c.identifier,
		"password":   c.password,
	}

	var session Session
	if err := c.postJSON(ctx, "/xrpc/com.atproto.server.createSession", "", body, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &session, nil
}

// ResolveHandle resolves a handle to a DID via
// com.atproto.identity.resolveHandle. A leading @ is stripped at this
// boundary.
func (c *xrpcClient) ResolveHandle(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimPrefix(handle, "@")
	requestURL := c.baseURL + "/xrpc/com.atproto.identity.resolveHandle?handle=" + url.QueryEscape(handle)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	var result struct {
		DID string `json:"did"`
	}
	if err := c.do(req, &result); err != nil {
		return "", fmt.Errorf("resolve handle %q: %w", handle, err)
	}
	return result.DID, nil
}

// UploadBlob uploads raw bytes via com.atproto.repo.uploadBlob and returns
// the reference from the response. The server deletes blobs that are not
// referenced by a record within a time window.
func (c *xrpcClient) UploadBlob(ctx context.Context, accessJwt string, data []byte, mimeType string) (*BlobRef, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/xrpc/com.atproto.repo.uploadBlob", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Authorization", "Bearer "+accessJwt)

	var result struct {
		Blob BlobRef `json:"blob"`
	}
	if err := c.do(req, &result); err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}
	return &result.Blob, nil
}

// CreateRecord writes a record via com.atproto.repo.createRecord.
func (c *xrpcClient) CreateRecord(ctx context.Context, accessJwt, repo, collection string, record any) error {
	body := createRecordRequest{
		Repo:       repo,
		Collection: collection,
		Record:     record,
	}

	var resp json.RawMessage
	if err := c.postJSON(ctx, "/xrpc/com.atproto.repo.createRecord", accessJwt, body, &resp); err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

func (c *xrpcClient) postJSON(ctx context.Context, path, accessJwt string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+accessJwt)
	}

	return c.do(req, result)
}

// do sends the request, turns any non-2xx status into an *APIError, and
// decodes the body into result when one is wanted. No retries.
func (c *xrpcClient) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("xrpc request failed",
			"url", req.URL.Path, "status", resp.StatusCode, "body", string(respBody))
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
