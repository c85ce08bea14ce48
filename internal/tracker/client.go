// Package tracker validates credentials against the external issue tracker's
// account service.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrInvalidCredentials means the tracker rejected the username/password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotConfigured means no tracker URL was provided.
	ErrNotConfigured = errors.New("issue tracker not configured")
)

const myselfPath = "/rest/api/2/myself"

// Profile is the minimal account information used to mint a session.
type Profile struct {
	Username    string
	DisplayName string
	Email       string
}

type myselfResponse struct {
	Name         string `json:"name"`
	Key          string `json:"key"`
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	Active       *bool  `json:"active"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if a tracker URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// Validate checks the credentials with the tracker and returns the account profile.
func (c *Client) Validate(ctx context.Context, username, password string) (*Profile, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+myselfPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(username, password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tracker request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidCredentials
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("tracker: status %d", resp.StatusCode)
	}

	var mr myselfResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if mr.Active != nil && !*mr.Active {
		return nil, ErrInvalidCredentials
	}

	p := &Profile{
		Username:    mr.Name,
		DisplayName: mr.DisplayName,
		Email:       mr.EmailAddress,
	}
	// Cloud trackers omit the legacy name; the login name is authoritative then.
	if p.Username == "" {
		p.Username = username
	}
	if p.DisplayName == "" {
		p.DisplayName = p.Username
	}
	return p, nil
}
