package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
)

const postmarkURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
	Tag      string `json:"Tag,omitempty"`
}

// RedemptionNotice describes a reviewed reward redemption.
type RedemptionNotice struct {
	To             string
	DisplayName    string
	RewardName     string
	Status         string
	PointsRefunded int
}

// SendRedemptionUpdate tells a member their redemption was approved or rejected.
func (c *Client) SendRedemptionUpdate(ctx context.Context, n RedemptionNotice) error {
	name := n.DisplayName
	if name == "" {
		name = "there"
	}

	var subject, text string
	switch n.Status {
	case "approved":
		subject = fmt.Sprintf("Your %s redemption was approved", n.RewardName)
		text = fmt.Sprintf("Hi %s,\n\nYour redemption of %q has been approved.", name, n.RewardName)
		if strings.Contains(strings.ToLower(n.RewardName), "wfh") {
			text += " Activate it from your rewards page to add the bonus days to this month."
		}
	case "rejected":
		subject = fmt.Sprintf("Your %s redemption was declined", n.RewardName)
		text = fmt.Sprintf("Hi %s,\n\nYour redemption of %q was declined.", name, n.RewardName)
		if n.PointsRefunded > 0 {
			text += fmt.Sprintf(" %d points have been returned to your balance.", n.PointsRefunded)
		}
	default:
		subject = fmt.Sprintf("Your %s redemption is %s", n.RewardName, n.Status)
		text = fmt.Sprintf("Hi %s,\n\nYour redemption of %q is now %s.", name, n.RewardName, n.Status)
	}

	link := c.baseURL + "/rewards"
	text += "\n\n" + link
	htmlBody := fmt.Sprintf(`<p>%s</p><p><a href="%s">View your rewards</a></p>`,
		strings.ReplaceAll(html.EscapeString(text), "\n\n", "</p><p>"), link)

	return c.send(ctx, postmarkEmail{
		From:     c.fromEmail,
		To:       n.To,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: text,
		Tag:      "redemption-" + n.Status,
	})
}

func (c *Client) send(ctx context.Context, payload postmarkEmail) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postmarkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
