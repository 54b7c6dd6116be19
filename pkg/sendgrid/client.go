// Package sendgrid delivers greetings through the SendGrid v3 mail API.
package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LoisM94/birthday-greeting/pkg/greeting/core"
)

const (
	DefaultBaseURL = "https://api.sendgrid.com"
	DefaultSubject = "Happy birthday!"
	DefaultTimeout = 30 * time.Second

	sendPath = "v3/mail/send"

	// Response bodies are kept for logging; cap what we hold in memory.
	maxBodyBytes = 64 << 10
)

// Config holds everything the client needs. Nothing is read from the
// environment here.
type Config struct {
	APIKey      string
	FromAddress string
	Subject     string
	BaseURL     string
	Timeout     time.Duration

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client sends one plain-text birthday e-mail per call.
type Client struct {
	baseURL *url.URL
	apiKey  string
	from    string
	subject string
	http    *http.Client
}

var _ core.DeliveryChannel = (*Client)(nil)

// New validates cfg and constructs a client.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	from := strings.TrimSpace(cfg.FromAddress)
	if from == "" {
		return nil, errors.New("sendgrid from address is required")
	}

	rawBase := strings.TrimSpace(cfg.BaseURL)
	if rawBase == "" {
		rawBase = DefaultBaseURL
	}
	base, err := parseBaseURL(rawBase)
	if err != nil {
		return nil, err
	}

	subject := strings.TrimSpace(cfg.Subject)
	if subject == "" {
		subject = DefaultSubject
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   timeout,
		}
	}

	return &Client{
		baseURL: base,
		apiKey:  apiKey,
		from:    from,
		subject: subject,
		http:    hc,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse sendgrid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("sendgrid base URL must include a host (got %q)", raw)
	}
	// Trailing slash so ResolveReference keeps any base path.
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

type address struct {
	Email string `json:"email"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// Message returns the greeting text for firstName.
func Message(firstName string) string {
	return fmt.Sprintf("Happy birthday, dear %s!", firstName)
}

// Send posts one message. Transport failures are returned as
// *core.TransientError; every HTTP response is returned with a nil error.
func (c *Client) Send(ctx context.Context, recipient, firstName string) (*core.Response, error) {
	payload, err := json.Marshal(mailRequest{
		Personalizations: []personalization{{To: []address{{Email: recipient}}}},
		From:             address{Email: c.from},
		Subject:          c.subject,
		Content:          []content{{Type: "text/plain", Value: Message(firstName)}},
	})
	if err != nil {
		return nil, fmt.Errorf("encode mail request: %w", err)
	}

	u := c.baseURL.ResolveReference(&url.URL{Path: sendPath})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &core.TransientError{Err: fmt.Errorf("sendgrid send: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &core.TransientError{Err: fmt.Errorf("sendgrid read response: %w", err)}
	}

	return &core.Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(b),
		Header:     resp.Header.Clone(),
	}, nil
}
