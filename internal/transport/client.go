package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PeerClient is the collaborator node.Node uses to forward and replicate
// requests to another node in the ring. It is the seam that keeps the
// node package free of HTTP code: node uses only this interface.
type PeerClient interface {
	Get(ctx context.Context, peerAddr, key string) (value string, found bool, err error)
	Put(ctx context.Context, peerAddr, key, value string, ttlSeconds int64, isReplica bool) error
	Remove(ctx context.Context, peerAddr, key string) error
}

// HTTPPeerClient implements PeerClient over HTTP+JSON against the Server
// in this package.
type HTTPPeerClient struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPPeerClient builds a client that bounds every call with timeout,
// applied as a context deadline layered on top of whatever the caller's
// context already carries.
func NewHTTPPeerClient(timeout time.Duration) *HTTPPeerClient {
	return &HTTPPeerClient{
		client:  &http.Client{},
		timeout: timeout,
	}
}

func (c *HTTPPeerClient) Get(ctx context.Context, peerAddr, key string) (string, bool, error) {
	var resp GetResponse
	if err := c.call(ctx, peerAddr, "/get", GetRequest{Key: key}, &resp); err != nil {
		return "", false, err
	}
	return resp.Value, resp.Found, nil
}

func (c *HTTPPeerClient) Put(ctx context.Context, peerAddr, key, value string, ttlSeconds int64, isReplica bool) error {
	var resp PutResponse
	return c.call(ctx, peerAddr, "/put", PutRequest{
		Key:        key,
		Value:      value,
		TTLSeconds: ttlSeconds,
		IsReplica:  isReplica,
	}, &resp)
}

func (c *HTTPPeerClient) Remove(ctx context.Context, peerAddr, key string) error {
	var resp RemoveResponse
	return c.call(ctx, peerAddr, "/remove", RemoveRequest{Key: key}, &resp)
}

func (c *HTTPPeerClient) call(ctx context.Context, peerAddr, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("transport: encode request: %w", err)
	}

	url := "http://" + peerAddr + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("transport: call %s%s: %w", peerAddr, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("transport: %s%s returned %d: %s", peerAddr, path, resp.StatusCode, errResp.Message)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
