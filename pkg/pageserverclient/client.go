package pageserverclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shardctl/controller/pkg/shardtypes"
)

// Client talks to page servers over their location-configuration HTTP API.
type Client struct {
	HTTP    *http.Client
	Timeout time.Duration
}

// New returns a Client with a sensible default per-request timeout.
func New() *Client {
	return &Client{
		HTTP:    &http.Client{},
		Timeout: 30 * time.Second,
	}
}

func locationURL(addr string, shard shardtypes.TenantShardId) string {
	return fmt.Sprintf("http://%s/v1/tenant/%s/location_config", addr, shard.String())
}

// UpsertLocation installs the given LocationConfig on the page server at
// addr for the given shard.
func (c *Client) UpsertLocation(ctx context.Context, addr string, shard shardtypes.TenantShardId, conf shardtypes.LocationConfig) error {
	body, err := json.Marshal(conf)
	if err != nil {
		return fmt.Errorf("marshal location config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, locationURL(addr, shard), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("upsert location on %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upsert location on %s: unexpected status %d: %s", addr, resp.StatusCode, readBody(resp.Body))
	}
	return nil
}

// DeleteLocation removes a shard's location from the page server at addr.
func (c *Client) DeleteLocation(ctx context.Context, addr string, shard shardtypes.TenantShardId) error {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, locationURL(addr, shard), nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("delete location on %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete location on %s: unexpected status %d: %s", addr, resp.StatusCode, readBody(resp.Body))
	}
	return nil
}

func readBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	return string(data)
}
