package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"onda-backend/internal/domain"
)

// Creator is one royalty recipient with its percentage share.
type Creator struct {
	Address string `json:"address"`
	Share   int64  `json:"share"`
}

// Metadata is what the NFT metadata service reports for a mint.
type Metadata struct {
	Mint                 string    `json:"mint"`
	CollectionMint       string    `json:"collection_mint"`
	CollectionVerified   bool      `json:"collection_verified"`
	SellerFeeBasisPoints int64     `json:"seller_fee_basis_points"`
	Creators             []Creator `json:"creators"`
}

// Resolver abstracts the metadata/collection service (external collaborator).
type Resolver interface {
	Resolve(ctx context.Context, mint string) (*Metadata, error)
}

// HTTPClient is a Resolver backed by the metadata service HTTP API.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func (c *HTTPClient) Resolve(ctx context.Context, mint string) (*Metadata, error) {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if c.BaseURL == "" {
		return nil, fmt.Errorf("metadata: METADATA_SERVICE_URL is not set")
	}
	base := strings.TrimRight(c.BaseURL, "/")
	url := fmt.Sprintf("%s/v1/metadata/%s", base, mint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, bytes.NewReader(nil))
	if err != nil {
		return nil, err
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("metadata error: status %d body: %s", resp.StatusCode, string(respBody))
	}

	var md Metadata
	if err := json.Unmarshal(respBody, &md); err != nil {
		return nil, fmt.Errorf("metadata response decode: %w", err)
	}
	return &md, nil
}

// StaticResolver is a map-backed Resolver for local development and tests.
type StaticResolver struct {
	Entries map[string]*Metadata
}

func (s *StaticResolver) Resolve(ctx context.Context, mint string) (*Metadata, error) {
	md, ok := s.Entries[mint]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return md, nil
}

// Add registers metadata for a mint (fluent, for test setup).
func (s *StaticResolver) Add(md *Metadata) *StaticResolver {
	if s.Entries == nil {
		s.Entries = map[string]*Metadata{}
	}
	s.Entries[md.Mint] = md
	return s
}
