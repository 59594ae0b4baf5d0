// Package pinning talks to a Pinata-compatible IPFS pinning service.
package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"kinetic/internal/config"
	"kinetic/internal/services"
)

// PinResult is the pinning service's answer for a successful pin.
type PinResult struct {
	IPFSHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Client pins content to IPFS through a remote pinning API.
type Client struct {
	jwt        string
	baseURL    string
	gatewayURL string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewFromConfig builds a client from the pinning section of the config.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	timeout := time.Duration(cfg.Pinning.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	client := &Client{
		jwt:        strings.TrimSpace(cfg.Pinning.JWT),
		baseURL:    strings.TrimRight(cfg.Pinning.BaseURL, "/"),
		gatewayURL: strings.TrimRight(cfg.Pinning.GatewayURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Configured reports whether the client holds credentials. Unconfigured
// clients fail every pin with a configuration error instead of a 401.
func (c *Client) Configured() bool {
	return c.jwt != ""
}

// PinFile streams content to the pinning service and returns the resulting
// content identifier. The name and keyvalues become pin metadata.
func (c *Client) PinFile(ctx context.Context, name string, content io.Reader, keyvalues map[string]string) (*PinResult, error) {
	if !c.Configured() {
		return nil, services.Wrap(services.ErrConfiguration, "pinning", "pin file", "pinning credentials not configured", nil)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("copy file content: %w", err)
	}

	metadata := map[string]any{"name": name}
	if len(keyvalues) > 0 {
		metadata["keyvalues"] = keyvalues
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encode pin metadata: %w", err)
	}
	if err := writer.WriteField("pinataMetadata", string(metadataJSON)); err != nil {
		return nil, fmt.Errorf("write pin metadata: %w", err)
	}
	if err := writer.WriteField("pinataOptions", `{"cidVersion":1}`); err != nil {
		return nil, fmt.Errorf("write pin options: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pinning/pinFileToIPFS", body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	return c.doPin(req, "pin file")
}

// PinJSON pins an arbitrary JSON document and returns its content identifier.
func (c *Client) PinJSON(ctx context.Context, name string, document any) (*PinResult, error) {
	if !c.Configured() {
		return nil, services.Wrap(services.ErrConfiguration, "pinning", "pin json", "pinning credentials not configured", nil)
	}

	payload := map[string]any{
		"pinataContent":  document,
		"pinataMetadata": map[string]any{"name": name},
		"pinataOptions":  map[string]any{"cidVersion": 1},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode json pin: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	return c.doPin(req, "pin json")
}

// Unpin asks the service to drop a pinned hash. Callers treat failures as
// advisory since the record referencing the hash is already gone.
func (c *Client) Unpin(ctx context.Context, hash string) error {
	if !c.Configured() {
		return services.Wrap(services.ErrConfiguration, "pinning", "unpin", "pinning credentials not configured", nil)
	}
	hash = strings.TrimSpace(strings.TrimPrefix(hash, "ipfs://"))
	if hash == "" {
		return services.Wrap(services.ErrValidation, "pinning", "unpin", "hash required", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/pinning/unpin/"+hash, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternal, "pinning", "unpin", "execute request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrExternal, "pinning", "unpin",
			fmt.Sprintf("service returned %d", resp.StatusCode), nil)
	}
	return nil
}

// GatewayURL renders a public HTTP URL for a content identifier. Identifiers
// carrying an ipfs:// scheme are accepted and stripped.
func (c *Client) GatewayURL(cid string) string {
	cid = strings.TrimSpace(strings.TrimPrefix(cid, "ipfs://"))
	if cid == "" {
		return ""
	}
	return c.gatewayURL + "/ipfs/" + cid
}

func (c *Client) doPin(req *http.Request, operation string) (*PinResult, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "pinning", operation, "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, services.Wrap(services.ErrExternal, "pinning", operation,
			fmt.Sprintf("service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	var result PinResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, services.Wrap(services.ErrExternal, "pinning", operation, "decode response", err)
	}
	if result.IPFSHash == "" {
		return nil, services.Wrap(services.ErrExternal, "pinning", operation, "response missing hash", nil)
	}
	return &result, nil
}
