package vault

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/vault/api"
)

const (
	// DefaultAddress is used when no Vault address is configured.
	DefaultAddress = "https://vault.adeo.no"

	// DefaultConnectTimeout bounds establishing the TCP/TLS connection.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultReadTimeout bounds a whole request/response exchange.
	DefaultReadTimeout = 30 * time.Second
)

// Client wraps the Vault API client with additional metadata
type Client struct {
	*api.Client
	address string
}

// ClientConfig holds configuration for creating a Vault client
type ClientConfig struct {
	Address        string
	Token          string
	TLSConfig      *TLSConfig
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	// DisableRetries turns off the API client's built-in retry of 5xx and
	// connection errors, so callers see the first failure.
	DisableRetries bool
}

// TLSConfig holds TLS configuration for Vault client
type TLSConfig struct {
	CACert     string
	SkipVerify bool
}

// TokenLookup is the subset of lookup-self data the lifecycle manager needs.
type TokenLookup struct {
	TTL       time.Duration
	Renewable bool
}

// RenewResult is the outcome of a renew-self call.
type RenewResult struct {
	LeaseDuration time.Duration
	Renewable     bool
}

// NewClient creates a new Vault client with the given configuration
func NewClient(cfg ClientConfig) (*Client, error) {
	config := api.DefaultConfig()
	if config.Error != nil {
		return nil, fmt.Errorf("failed to read vault environment: %w", config.Error)
	}
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	config.Address = cfg.Address

	config.Timeout = DefaultReadTimeout
	if cfg.ReadTimeout > 0 {
		config.Timeout = cfg.ReadTimeout
	}
	if cfg.DisableRetries {
		config.MaxRetries = 0
	}

	connectTimeout := DefaultConnectTimeout
	if cfg.ConnectTimeout > 0 {
		connectTimeout = cfg.ConnectTimeout
	}
	if transport, ok := config.HttpClient.Transport.(*http.Transport); ok {
		transport.DialContext = (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
		transport.TLSHandshakeTimeout = connectTimeout
	}

	if cfg.TLSConfig != nil {
		if err := config.ConfigureTLS(&api.TLSConfig{
			CACert:   cfg.TLSConfig.CACert,
			Insecure: cfg.TLSConfig.SkipVerify,
		}); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	// api.NewClient picks up VAULT_TOKEN from the environment; the resolved
	// token always wins.
	client.ClearToken()
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	return &Client{
		Client:  client,
		address: cfg.Address,
	}, nil
}

// Address returns the Vault address this client talks to
func (c *Client) Address() string {
	return c.address
}

// IsHealthy checks if Vault is healthy and the client can connect
func (c *Client) IsHealthy(ctx context.Context) (bool, error) {
	health, err := c.Sys().HealthWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("vault health check failed: %w", err)
	}

	// Vault is healthy if initialized and unsealed
	return health.Initialized && !health.Sealed, nil
}

// LookupSelf returns TTL and renewability of the client's own token
func (c *Client) LookupSelf(ctx context.Context) (*TokenLookup, error) {
	secret, err := c.Auth().Token().LookupSelfWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up vault token: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("token lookup returned no data")
	}

	ttl, err := secret.TokenTTL()
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ttl: %w", err)
	}
	renewable, err := secret.TokenIsRenewable()
	if err != nil {
		return nil, fmt.Errorf("failed to parse token renewable flag: %w", err)
	}

	return &TokenLookup{
		TTL:       ttl,
		Renewable: renewable,
	}, nil
}

// RenewSelf extends the client's own token in place and returns the new lease
func (c *Client) RenewSelf(ctx context.Context) (*RenewResult, error) {
	secret, err := c.Auth().Token().RenewSelfWithContext(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to renew vault token: %w", err)
	}
	if secret == nil || secret.Auth == nil {
		return nil, fmt.Errorf("token renewal returned no auth data")
	}

	return &RenewResult{
		LeaseDuration: time.Duration(secret.Auth.LeaseDuration) * time.Second,
		Renewable:     secret.Auth.Renewable,
	}, nil
}

// Read reads a secret and returns its fields as strings.
// KV version 2 envelopes ({"data": {"data": {...}}}) are unwrapped.
// A missing secret yields an empty map and no error.
func (c *Client) Read(ctx context.Context, path string) (map[string]string, error) {
	secret, err := c.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret %s: %w", path, err)
	}

	result := make(map[string]string)
	if secret == nil || secret.Data == nil {
		return result, nil
	}

	data := secret.Data
	if nested, ok := data["data"].(map[string]interface{}); ok {
		if _, hasMetadata := data["metadata"]; hasMetadata {
			data = nested
		}
	}

	for k, v := range data {
		switch val := v.(type) {
		case string:
			result[k] = val
		case nil:
			result[k] = ""
		default:
			result[k] = fmt.Sprintf("%v", val)
		}
	}
	return result, nil
}

// IsPermissionDenied reports whether Vault answered with 401 or 403.
func IsPermissionDenied(err error) bool {
	var respErr *api.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == http.StatusForbidden || respErr.StatusCode == http.StatusUnauthorized
	}
	return false
}
