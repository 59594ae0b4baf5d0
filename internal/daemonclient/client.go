package daemonclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kinetic/internal/api"
	"kinetic/internal/services/ipreg"
)

// Client talks to a running kinetic daemon over its HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New builds a client for the daemon listening at baseURL.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status fetches daemon runtime state.
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var resp api.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Categories fetches the skill category list.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var resp api.CategoriesResponse
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// VideoFilter narrows a marketplace listing.
type VideoFilter struct {
	Category string
	Search   string
	Owner    string
}

// Videos lists published videos.
func (c *Client) Videos(ctx context.Context, filter VideoFilter) ([]api.VideoView, error) {
	query := url.Values{}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.Owner != "" {
		query.Set("owner", filter.Owner)
	}
	path := "/api/videos"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var resp api.VideoListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Videos, nil
}

// Video fetches a single published video.
func (c *Client) Video(ctx context.Context, id string) (*api.VideoView, error) {
	var resp api.VideoResponse
	if err := c.do(ctx, http.MethodGet, "/api/videos/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Video, nil
}

// UpdateVideo edits a published record on behalf of its owner.
func (c *Client) UpdateVideo(ctx context.Context, id string, req api.UpdateVideoRequest) (*api.VideoView, error) {
	var resp api.VideoResponse
	if err := c.do(ctx, http.MethodPut, "/api/videos/"+url.PathEscape(id), req, &resp); err != nil {
		return nil, err
	}
	return &resp.Video, nil
}

// DeleteVideo removes a published record on behalf of its owner.
func (c *Client) DeleteVideo(ctx context.Context, id, ownerAddress string) error {
	path := "/api/videos/" + url.PathEscape(id) + "?ownerAddress=" + url.QueryEscape(ownerAddress)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Upload streams a local video file to the daemon for pinning.
func (c *Client) Upload(ctx context.Context, path, walletAddress string) (*api.UploadResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	header.Set("Content-Type", contentTypeFor(path))
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if walletAddress != "" {
		if err := writer.WriteField("walletAddress", walletAddress); err != nil {
			return nil, fmt.Errorf("build upload: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(httpReq)

	var resp api.UploadResponse
	if err := c.send(httpReq, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadMetadata pins a JSON metadata object through the daemon.
func (c *Client) UploadMetadata(ctx context.Context, metadata map[string]any) (*api.MetadataUploadResponse, error) {
	var resp api.MetadataUploadResponse
	if err := c.do(ctx, http.MethodPost, "/api/upload/metadata", metadata, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Verify submits a personhood proof for a wallet.
func (c *Client) Verify(ctx context.Context, req api.VerifyRequest) (*api.VerifyResponse, error) {
	var resp api.VerifyResponse
	if err := c.do(ctx, http.MethodPost, "/api/verify-worldid", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateSession opens a publish workflow session.
func (c *Client) CreateSession(ctx context.Context, walletAddress string) (*api.SessionView, error) {
	req := api.CreateSessionRequest{WalletAddress: walletAddress}
	var resp api.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Session, nil
}

// Session fetches a session snapshot.
func (c *Client) Session(ctx context.Context, id string) (*api.SessionView, error) {
	var resp api.SessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Session, nil
}

// DiscardSession abandons a session.
func (c *Client) DiscardSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(id), nil, nil)
}

// AttachUpload records the pinned video on a session.
func (c *Client) AttachUpload(ctx context.Context, id string, req api.AttachUploadRequest) (*api.SessionView, error) {
	return c.sessionAction(ctx, id, "upload", req)
}

// VerifySession verifies personhood within a session.
func (c *Client) VerifySession(ctx context.Context, id string, req api.VerifyRequest) (*api.SessionView, error) {
	return c.sessionAction(ctx, id, "verify", req)
}

// Advance moves a session from the upload step to details.
func (c *Client) Advance(ctx context.Context, id string) (*api.SessionView, error) {
	return c.sessionAction(ctx, id, "advance", struct{}{})
}

// SetDetails captures the details step fields.
func (c *Client) SetDetails(ctx context.Context, id string, req api.SetDetailsRequest) (*api.SessionView, error) {
	return c.sessionAction(ctx, id, "details", req)
}

// Mint pins metadata and mints the video NFT.
func (c *Client) Mint(ctx context.Context, id string) (*api.SessionView, error) {
	return c.sessionAction(ctx, id, "mint", struct{}{})
}

// RegisterIP registers the minted token as an IP asset.
func (c *Client) RegisterIP(ctx context.Context, id string) (*api.SessionView, error) {
	return c.sessionAction(ctx, id, "register", struct{}{})
}

// AttachLicense attaches license terms and completes the session.
func (c *Client) AttachLicense(ctx context.Context, id string, terms ipreg.Terms) (*api.SessionView, error) {
	return c.sessionAction(ctx, id, "license", api.AttachLicenseRequest{Terms: terms})
}

// Back steps a session one wizard step backwards.
func (c *Client) Back(ctx context.Context, id string) (*api.SessionView, error) {
	return c.sessionAction(ctx, id, "back", struct{}{})
}

func (c *Client) sessionAction(ctx context.Context, id, action string, payload any) (*api.SessionView, error) {
	var resp api.SessionResponse
	path := "/api/sessions/" + url.PathEscape(id) + "/" + action
	if err := c.do(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return nil, err
	}
	return &resp.Session, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daemon request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, errorDetail(resp.Body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func errorDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 512))
	if err != nil || len(data) == 0 {
		return "no detail"
	}
	var wrapped struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &wrapped) == nil && wrapped.Error != "" {
		return wrapped.Error
	}
	return strings.TrimSpace(string(data))
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	default:
		return "application/octet-stream"
	}
}
