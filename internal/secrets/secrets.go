// Package secrets resolves the SendGrid API key from AWS Secrets Manager.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
)

var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrSecretEmpty    = errors.New("secret value is empty")
	ErrAccessDenied   = errors.New("access denied to secret")
)

// ManagerAPI is the subset of the Secrets Manager client used here.
type ManagerAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// Client reads secret strings.
type Client struct {
	api    ManagerAPI
	logger *slog.Logger
}

// New loads the default AWS configuration and returns a client.
func New(ctx context.Context, region string, logger *slog.Logger) (*Client, error) {
	var opts []func(*config.LoadOptions) error
	if r := strings.TrimSpace(region); r != "" {
		opts = append(opts, config.WithRegion(r))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewWithAPI(secretsmanager.NewFromConfig(cfg), logger), nil
}

// NewWithAPI wraps an existing Secrets Manager API.
func NewWithAPI(api ManagerAPI, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, logger: logger}
}

// APIKey returns the secret's value. A JSON object secret is accepted when
// it carries an "api_key" field.
func (c *Client) APIKey(ctx context.Context, secretID string) (string, error) {
	secretID = strings.TrimSpace(secretID)
	if secretID == "" {
		return "", errors.New("secret id is required")
	}

	out, err := c.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", c.handleError(err, secretID)
	}

	raw := strings.TrimSpace(aws.ToString(out.SecretString))
	if raw == "" {
		return "", fmt.Errorf("%s: %w", secretID, ErrSecretEmpty)
	}

	if strings.HasPrefix(raw, "{") {
		var obj struct {
			APIKey string `json:"api_key"`
		}
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return "", fmt.Errorf("parse secret %s: %w", secretID, err)
		}
		raw = strings.TrimSpace(obj.APIKey)
		if raw == "" {
			return "", fmt.Errorf("%s: api_key field: %w", secretID, ErrSecretEmpty)
		}
	}

	c.logger.Debug("secret resolved", "secret_id", secretID)
	return raw, nil
}

func (c *Client) handleError(err error, secretID string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ResourceNotFoundException":
			return fmt.Errorf("%s: %w", secretID, ErrSecretNotFound)
		case "AccessDeniedException":
			return fmt.Errorf("%s: %w", secretID, ErrAccessDenied)
		}
		return fmt.Errorf("get secret %s failed: %s: %s", secretID, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("get secret %s: %w", secretID, err)
}
