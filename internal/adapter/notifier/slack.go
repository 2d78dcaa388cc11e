package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hive-corporation/alert-enricher/internal/core/domain"
)

const slackPostMessageURL = "https://slack.com/api/chat.postMessage"

// maxIndicatorBlocks limits per-message indicator sections to keep messages readable.
const maxIndicatorBlocks = 5

type SlackNotifier struct {
	botToken    string
	channel     string
	mentionTeam string
	minSeverity domain.SeverityLevel
	apiURL      string
	httpClient  *http.Client
}

func NewSlackNotifier(botToken, channel, mentionTeam string, minSeverity domain.SeverityLevel) *SlackNotifier {
	if minSeverity.Rank() == 0 {
		minSeverity = domain.SeverityHigh
	}
	return &SlackNotifier{
		botToken:    botToken,
		channel:     channel,
		mentionTeam: mentionTeam,
		minSeverity: minSeverity,
		apiURL:      slackPostMessageURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *SlackNotifier) Name() string {
	return "slack"
}

// Record posts the alert when it meets the configured minimum severity.
func (s *SlackNotifier) Record(ctx context.Context, alert *domain.EnrichedAlert) error {
	if alert.Severity.Rank() < s.minSeverity.Rank() {
		return nil
	}
	return s.NotifyEnrichedAlert(ctx, alert)
}

// NotifyEnrichedAlert sends a formatted alert to Slack regardless of severity
func (s *SlackNotifier) NotifyEnrichedAlert(ctx context.Context, alert *domain.EnrichedAlert) error {
	payload := SlackMessage{
		Channel: s.channel,
		Blocks:  s.buildAlertBlocks(alert),
		Text:    fmt.Sprintf("%s %s: %s", severityEmoji(alert.Severity), alert.Severity, alert.DetectionType),
	}

	return s.sendMessage(ctx, payload)
}

func severityEmoji(level domain.SeverityLevel) string {
	switch level {
	case domain.SeverityCritical:
		return "🔴"
	case domain.SeverityHigh:
		return "🟠"
	case domain.SeverityMedium:
		return "🟡"
	case domain.SeverityLow:
		return "🟢"
	}
	return "⚠️"
}

func (s *SlackNotifier) buildAlertBlocks(alert *domain.EnrichedAlert) []SlackBlock {
	blocks := []SlackBlock{
		{
			Type: "header",
			Text: &SlackText{
				Type: "plain_text",
				Text: fmt.Sprintf("%s %s Severity: %s", severityEmoji(alert.Severity), alert.Severity, alert.DetectionType),
			},
		},
		{
			Type: "section",
			Fields: []SlackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Alarm*\n%s", alert.AlarmName)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*State*\n%s", alert.State)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Time*\n%s", alert.Timestamp)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Description*\n%s", alert.AlarmDescription)},
			},
		},
		{Type: "divider"},
	}

	if len(alert.SourceIndicators) == 0 {
		blocks = append(blocks, SlackBlock{
			Type: "section",
			Text: &SlackText{Type: "mrkdwn", Text: "_No source IPs found in alarm reason_"},
		})
	}

	for i, ind := range alert.SourceIndicators {
		if i >= maxIndicatorBlocks {
			blocks = append(blocks, SlackBlock{
				Type: "section",
				Text: &SlackText{
					Type: "mrkdwn",
					Text: fmt.Sprintf("_...and %d more source IPs_", len(alert.SourceIndicators)-maxIndicatorBlocks),
				},
			})
			break
		}

		blocks = append(blocks, SlackBlock{
			Type: "section",
			Text: &SlackText{Type: "mrkdwn", Text: formatIndicator(ind)},
		})
	}

	blocks = append(blocks,
		SlackBlock{Type: "divider"},
		SlackBlock{
			Type: "section",
			Text: &SlackText{
				Type: "mrkdwn",
				Text: "*✅ Recommended Actions*\n" + strings.Join(alert.Recommendations, "\n"),
			},
		},
	)

	if s.mentionTeam != "" {
		blocks = append(blocks, SlackBlock{
			Type: "context",
			Elements: []SlackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("🔔 cc: %s", s.mentionTeam)},
			},
		})
	}

	return blocks
}

func formatIndicator(ind domain.IndicatorContext) string {
	geo := ind.Geo
	switch geo.Status {
	case domain.GeoPrivate:
		return fmt.Sprintf("*IP:* `%s`\n• %s (%s)", ind.Address, geo.Country, geo.ISP)
	case domain.GeoFailed:
		return fmt.Sprintf("*IP:* `%s`\n• Geolocation unavailable: %s", ind.Address, geo.Error)
	}
	return fmt.Sprintf("*IP:* `%s`\n• Location: %s, %s\n• ISP: %s\n• Org: %s\n• ASN: %s",
		ind.Address, geo.City, geo.Country, geo.ISP, geo.Organization, geo.ASN)
}

// Send message to Slack
func (s *SlackNotifier) sendMessage(ctx context.Context, msg SlackMessage) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.botToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}

	// Slack reports most failures with HTTP 200 and ok=false
	var apiResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err == nil && !apiResp.OK {
		return fmt.Errorf("slack API error: %s", apiResp.Error)
	}

	return nil
}

// Slack API structures

type SlackMessage struct {
	Channel string       `json:"channel"`
	Blocks  []SlackBlock `json:"blocks"`
	Text    string       `json:"text"` // Fallback text
}

type SlackBlock struct {
	Type     string      `json:"type"`
	Text     *SlackText  `json:"text,omitempty"`
	Fields   []SlackText `json:"fields,omitempty"`
	Elements []SlackText `json:"elements,omitempty"`
}

type SlackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
