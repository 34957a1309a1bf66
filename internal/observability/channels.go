package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/firstissue/pulse/pkg/models"
)

// AlertChannel delivers a fired alert to an external destination. Delivery
// mechanics are the channel's own business; the alert manager only imposes
// per-channel failure isolation.
type AlertChannel interface {
	Name() string
	Enabled() bool
	Send(record models.AlertRecord) error
}

// slackChannel posts alerts to a Slack incoming webhook.
type slackChannel struct {
	name       string
	webhookURL string
	enabled    bool
	client     *http.Client
}

// NewSlackChannel creates a Slack webhook channel registered under name.
func NewSlackChannel(name, webhookURL string) AlertChannel {
	return &slackChannel{
		name:       name,
		webhookURL: webhookURL,
		enabled:    webhookURL != "",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *slackChannel) Name() string  { return s.name }
func (s *slackChannel) Enabled() bool { return s.enabled }

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Send posts the alert to the configured webhook.
func (s *slackChannel) Send(record models.AlertRecord) error {
	msg := slackMessage{
		Blocks: []slackBlock{
			{
				Type: "header",
				Text: &slackText{Type: "plain_text", Text: "pulse Alert"},
			},
			{
				Type: "section",
				Text: &slackText{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*[%s]* %s\nerror rate %.1f%%, avg response %.0fms\n_%s_",
						strings.ToUpper(string(record.Severity)),
						record.Message,
						record.ErrorRate*100,
						record.AverageResponseTime,
						record.Timestamp.Format("2006-01-02 15:04 UTC"),
					),
				},
			},
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// logChannel writes alerts to the structured log. It always succeeds and is
// the fallback destination when no external channel is configured.
type logChannel struct {
	name   string
	logger *zap.Logger
}

// NewLogChannel creates a channel that records alerts via the given logger.
func NewLogChannel(name string, logger *zap.Logger) AlertChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logChannel{name: name, logger: logger}
}

func (c *logChannel) Name() string  { return c.name }
func (c *logChannel) Enabled() bool { return true }

func (c *logChannel) Send(record models.AlertRecord) error {
	c.logger.Warn("alert fired",
		zap.String("rule", record.RuleName),
		zap.String("severity", string(record.Severity)),
		zap.String("message", record.Message),
		zap.Float64("error_rate", record.ErrorRate),
		zap.Float64("avg_response_ms", record.AverageResponseTime))
	return nil
}
