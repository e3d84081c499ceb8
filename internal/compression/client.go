// Package compression is the client boundary to the external compressed
// append-only ledger. Tree internals are never inspected here; the service
// only consumes the emitted leaf schema.
package compression

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// LeafSchemaV1 is the leaf emitted by the compression service on AddEntry.
type LeafSchemaV1 struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	CreatedAt int64  `json:"created_at"`
	EditedAt  *int64 `json:"edited_at"`
	Nonce     uint64 `json:"nonce"`
	DataHash  string `json:"data_hash"`
}

// Client is the ledger boundary.
type Client interface {
	AddEntry(ctx context.Context, payload []byte) (*LeafSchemaV1, error)
	DeleteEntry(ctx context.Context, req DeleteEntryRequest) error
}

// DeleteEntryRequest carries the proof material for removing a leaf.
type DeleteEntryRequest struct {
	Root      string   `json:"root"`
	CreatedAt int64    `json:"created_at"`
	EditedAt  *int64   `json:"edited_at"`
	DataHash  string   `json:"data_hash"`
	Nonce     uint64   `json:"nonce"`
	Index     uint32   `json:"index"`
	Proof     []string `json:"proof"`
}

// HTTPClient talks to the compression service.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func (c *HTTPClient) AddEntry(ctx context.Context, payload []byte) (*LeafSchemaV1, error) {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	base := strings.TrimRight(c.BaseURL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/v1/entries", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("compression request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("compression error: status %d body: %s", resp.StatusCode, string(respBody))
	}

	var leaf LeafSchemaV1
	if err := json.Unmarshal(respBody, &leaf); err != nil {
		return nil, fmt.Errorf("compression response decode: %w", err)
	}
	return &leaf, nil
}

func (c *HTTPClient) DeleteEntry(ctx context.Context, delReq DeleteEntryRequest) error {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	body, err := json.Marshal(delReq)
	if err != nil {
		return err
	}
	base := strings.TrimRight(c.BaseURL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, base+"/v1/entries", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("compression request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("compression error: status %d body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
