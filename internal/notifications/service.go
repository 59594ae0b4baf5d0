package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kinetic/internal/config"
)

const userAgent = "Kinetic-Go/0.1.0"

// Service defines the notification surface exposed to marketplace components.
type Service interface {
	NotifyUploadPinned(ctx context.Context, fileName, ipfsHash string) error
	NotifyHumanVerified(ctx context.Context, walletAddress string) error
	NotifyVideoPublished(ctx context.Context, title, category string, tokenID int64) error
	NotifyIPRegistered(ctx context.Context, title, ipAssetID string) error
	NotifyVideoDeleted(ctx context.Context, title string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
		cfg:      cfg.Notifications,
	}
}

// Noop returns a notification service that discards everything.
func Noop() Service { return noopService{} }

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	cfg      config.Notifications
}

func (n *ntfyService) NotifyUploadPinned(ctx context.Context, fileName, ipfsHash string) error {
	if !n.cfg.Uploads {
		return nil
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		fileName = "upload"
	}
	data := payload{
		title:   "Kinetic - Upload Pinned",
		message: fmt.Sprintf("Pinned %s as %s", fileName, ipfsHash),
		tags:    []string{"kinetic", "upload", "pinned"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyHumanVerified(ctx context.Context, walletAddress string) error {
	if !n.cfg.Uploads {
		return nil
	}
	data := payload{
		title:   "Kinetic - Human Verified",
		message: fmt.Sprintf("Personhood verified for %s", strings.TrimSpace(walletAddress)),
		tags:    []string{"kinetic", "identity", "verified"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyVideoPublished(ctx context.Context, title, category string, tokenID int64) error {
	if !n.cfg.Publishes {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:    "Kinetic - Video Published",
		message:  fmt.Sprintf("%s (%s) minted as token %d", title, category, tokenID),
		tags:     []string{"kinetic", "publish", "minted"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyIPRegistered(ctx context.Context, title, ipAssetID string) error {
	if !n.cfg.Registrations {
		return nil
	}
	data := payload{
		title:   "Kinetic - IP Registered",
		message: fmt.Sprintf("%s registered as IP asset %s", strings.TrimSpace(title), ipAssetID),
		tags:    []string{"kinetic", "ip", "registered"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyVideoDeleted(ctx context.Context, title string) error {
	if !n.cfg.Publishes {
		return nil
	}
	data := payload{
		title:   "Kinetic - Video Deleted",
		message: fmt.Sprintf("Removed: %s", strings.TrimSpace(title)),
		tags:    []string{"kinetic", "video", "deleted"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.cfg.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Kinetic - Error",
		message:  builder.String(),
		tags:     []string{"kinetic", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Kinetic - Test",
		message:  "Notification system test",
		tags:     []string{"kinetic", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyUploadPinned(context.Context, string, string) error          { return nil }
func (noopService) NotifyHumanVerified(context.Context, string) error                 { return nil }
func (noopService) NotifyVideoPublished(context.Context, string, string, int64) error { return nil }
func (noopService) NotifyIPRegistered(context.Context, string, string) error          { return nil }
func (noopService) NotifyVideoDeleted(context.Context, string) error                  { return nil }
func (noopService) NotifyError(context.Context, error, string) error                  { return nil }
func (noopService) TestNotification(context.Context) error                            { return nil }
