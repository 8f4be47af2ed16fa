package notify

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/harrisonrobin/nudge/pkg/model"
)

// Ntfy publishes notifications to an ntfy topic so they reach a phone.
type Ntfy struct {
	serverURL string
	topic     string
	client    *http.Client
}

func NewNtfy(serverURL, topic string) *Ntfy {
	return &Ntfy{
		serverURL: strings.TrimRight(serverURL, "/"),
		topic:     topic,
		client:    http.DefaultClient,
	}
}

func (c *Ntfy) Notify(ctx context.Context, n Notification) error {
	url := fmt.Sprintf("%s/%s", c.serverURL, c.topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(n.Body))
	if err != nil {
		return err
	}
	// Header values must be ASCII without line breaks; ntfy decodes RFC 2047.
	req.Header.Set("Title", mime.QEncoding.Encode("utf-8", n.Summary))
	req.Header.Set("Priority", ntfyPriority(n.Priority))
	req.Header.Set("Tags", "alarm_clock")
	if strings.HasPrefix(n.Icon, "http://") || strings.HasPrefix(n.Icon, "https://") {
		req.Header.Set("Icon", n.Icon)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ntfy request failed: status %d, body: %s", resp.StatusCode, string(body))
	}
	return nil
}

func ntfyPriority(p model.Priority) string {
	switch p {
	case model.Low:
		return "low"
	case model.High:
		return "high"
	}
	return "default"
}
