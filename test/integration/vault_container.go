/*
Package integration provides testcontainers-based integration tests for the vault provider.

This file implements the VaultTestContainer wrapper around testcontainers-go's Vault module,
providing helpers to mint tokens with specific TTLs and to seed secrets.
*/
package integration

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	vaultapi "github.com/hashicorp/vault/api"
	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"
	"github.com/testcontainers/testcontainers-go/modules/vault"
)

// VaultTestContainer wraps a testcontainers Vault instance with a root client
type VaultTestContainer struct {
	*vault.VaultContainer
	address string
	root    *vaultapi.Client
}

// VaultContainerOption configures a VaultTestContainer
type VaultContainerOption func(*vaultContainerOptions)

type vaultContainerOptions struct {
	imageTag  string
	rootToken string
	logLevel  string
	policies  map[string]string // name -> HCL content
}

func defaultOptions() *vaultContainerOptions {
	return &vaultContainerOptions{
		imageTag:  "1.17.2",
		rootToken: "root-token",
		logLevel:  "info",
		policies:  make(map[string]string),
	}
}

// WithLogLevel sets Vault log level (trace, debug, info, warn, err)
func WithLogLevel(level string) VaultContainerOption {
	return func(o *vaultContainerOptions) {
		o.logLevel = level
	}
}

// WithPolicy pre-configures a policy in Vault
func WithPolicy(name, hcl string) VaultContainerOption {
	return func(o *vaultContainerOptions) {
		o.policies[name] = hcl
	}
}

// WithCredentialReaderPolicy adds a policy allowing reads of the postgres
// credentials in the dev-mode KV v2 engine.
func WithCredentialReaderPolicy() VaultContainerOption {
	return WithPolicy(CredentialReaderPolicy, `
path "secret/data/postgres/*" {
  capabilities = ["read"]
}
`)
}

// CredentialReaderPolicy is the policy installed by WithCredentialReaderPolicy.
const CredentialReaderPolicy = "credential-reader"

// NewVaultTestContainer creates and starts a new Vault test container
func NewVaultTestContainer(ctx context.Context, opts ...VaultContainerOption) (*VaultTestContainer, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	containerOpts := []testcontainers.ContainerCustomizer{
		vault.WithToken(options.rootToken),
	}

	for name, hcl := range options.policies {
		escapedHCL := strings.ReplaceAll(hcl, "'", "'\\''")
		cmd := fmt.Sprintf("policy write %s - <<'EOF'\n%s\nEOF", name, escapedHCL)
		containerOpts = append(containerOpts, vault.WithInitCommand(cmd))
	}

	containerOpts = append(containerOpts, testcontainers.WithEnv(map[string]string{
		"VAULT_LOG_LEVEL": options.logLevel,
	}))

	container, err := vault.Run(ctx, "hashicorp/vault:"+options.imageTag, containerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start vault container: %w", err)
	}

	address, err := container.HttpHostAddress(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("failed to get vault address: %w", err)
	}

	cfg := vaultapi.DefaultConfig()
	cfg.Address = address
	root, err := vaultapi.NewClient(cfg)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("failed to create root client: %w", err)
	}
	root.SetToken(options.rootToken)

	return &VaultTestContainer{
		VaultContainer: container,
		address:        address,
		root:           root,
	}, nil
}

// Address returns the HTTP address of the Vault container
func (v *VaultTestContainer) Address() string {
	return v.address
}

// TokenOptions describes a child token minted by CreateToken.
type TokenOptions struct {
	TTL       time.Duration
	Renewable bool
	Policies  []string
}

// CreateToken mints a token with the root token and returns its ID.
func (v *VaultTestContainer) CreateToken(ctx context.Context, opts TokenOptions) (string, error) {
	renewable := opts.Renewable
	secret, err := v.root.Auth().Token().CreateWithContext(ctx, &vaultapi.TokenCreateRequest{
		TTL:       opts.TTL.String(),
		Renewable: &renewable,
		Policies:  opts.Policies,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}
	if secret == nil || secret.Auth == nil {
		return "", fmt.Errorf("token create returned no auth data")
	}
	return secret.Auth.ClientToken, nil
}

// RevokeToken revokes a token with the root token.
func (v *VaultTestContainer) RevokeToken(ctx context.Context, token string) error {
	if err := v.root.Auth().Token().RevokeTreeWithContext(ctx, token); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// WriteKV2 writes data to the dev-mode KV v2 engine mounted at secret/.
func (v *VaultTestContainer) WriteKV2(ctx context.Context, path string, data map[string]interface{}) error {
	_, err := v.root.Logical().WriteWithContext(ctx, "secret/data/"+path, map[string]interface{}{
		"data": data,
	})
	if err != nil {
		return fmt.Errorf("failed to write secret/%s: %w", path, err)
	}
	return nil
}

// Exec executes a vault CLI command inside the container
func (v *VaultTestContainer) Exec(ctx context.Context, cmd []string) (int, string, error) {
	fullCmd := append([]string{"vault"}, cmd...)

	exitCode, reader, err := v.VaultContainer.Exec(ctx, fullCmd, tcexec.Multiplexed())
	if err != nil {
		return exitCode, "", fmt.Errorf("exec failed: %w", err)
	}

	var output string
	if reader != nil {
		data, err := io.ReadAll(reader)
		if err != nil {
			return exitCode, "", fmt.Errorf("failed to read exec output: %w", err)
		}
		output = string(data)
	}

	return exitCode, output, nil
}

// Health checks if Vault is healthy
func (v *VaultTestContainer) Health(ctx context.Context) (bool, error) {
	exitCode, _, err := v.Exec(ctx, []string{"status"})
	if err != nil {
		return false, err
	}
	// exit code 0 means healthy, initialized, and unsealed
	return exitCode == 0, nil
}

// WaitForHealthy polls Health until it reports healthy or timeout passes
func (v *VaultTestContainer) WaitForHealthy(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for vault to be healthy")
		case <-ticker.C:
			healthy, err := v.Health(ctx)
			if err == nil && healthy {
				return nil
			}
		}
	}
}

// Terminate stops and removes the container
func (v *VaultTestContainer) Terminate(ctx context.Context) error {
	if v.VaultContainer != nil {
		return v.VaultContainer.Terminate(ctx)
	}
	return nil
}

// IsDockerAvailable reports whether a Docker daemon answers
func IsDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	return cmd.Run() == nil
}
