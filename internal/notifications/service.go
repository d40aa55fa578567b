package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"descant/internal/config"
)

const userAgent = "Descant/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyUploadReceived(ctx context.Context, filename string) error
	NotifyAnalysisCompleted(ctx context.Context, filename string, totalScenes, degradedScenes int) error
	NotifyExportCompleted(ctx context.Context, filename string, totalScenes int) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
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

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		analysis: cfg.Notifications.Analysis,
		export:   cfg.Notifications.Export,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	analysis bool
	export   bool
	errors   bool
}

func (n *ntfyService) NotifyUploadReceived(ctx context.Context, filename string) error {
	if !n.analysis {
		return nil
	}
	filename = strings.TrimSpace(filename)
	data := payload{
		title:   "Descant - Upload Received",
		message: fmt.Sprintf("Video uploaded: %s", filename),
		tags:    []string{"descant", "upload", "received"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAnalysisCompleted(ctx context.Context, filename string, totalScenes, degradedScenes int) error {
	if !n.analysis {
		return nil
	}
	filename = strings.TrimSpace(filename)
	var title, message string
	if degradedScenes == 0 {
		title = "Descant - Analysis Complete"
		message = fmt.Sprintf("Described %d scenes in %s", totalScenes, filename)
	} else {
		title = "Descant - Analysis Complete (degraded)"
		message = fmt.Sprintf("Described %d scenes in %s; %d used local fallbacks", totalScenes, filename, degradedScenes)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"descant", "analysis", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyExportCompleted(ctx context.Context, filename string, totalScenes int) error {
	if !n.export {
		return nil
	}
	filename = strings.TrimSpace(filename)
	data := payload{
		title:    "Descant - Export Ready",
		message:  fmt.Sprintf("Export prepared for %s (%d scenes)", filename, totalScenes),
		tags:     []string{"descant", "export", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
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
		title:    "Descant - Error",
		message:  builder.String(),
		tags:     []string{"descant", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Descant - Test",
		message:  "Notification system test",
		tags:     []string{"descant", "test"},
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
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("ntfy responded with status %d", resp.StatusCode)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyUploadReceived(context.Context, string) error { return nil }

func (noopService) NotifyAnalysisCompleted(context.Context, string, int, int) error { return nil }

func (noopService) NotifyExportCompleted(context.Context, string, int) error { return nil }

func (noopService) NotifyError(context.Context, error, string) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
