/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package secrets reads application credentials through the managed Vault client.
package secrets

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/navikt/kafka-connect-vault-provider/pkg/logger"
	"github.com/navikt/kafka-connect-vault-provider/pkg/metrics"
	"github.com/navikt/kafka-connect-vault-provider/pkg/vault"
)

// Credential field names stored in Vault.
const (
	UsernameField = "username"
	PasswordField = "password"
)

// ClientProvider hands out the authenticated Vault client.
type ClientProvider interface {
	Client(ctx context.Context) (*vault.Client, error)
}

// Credentials is a username/password pair read from Vault.
type Credentials struct {
	Username string
	Password string
}

// String never includes the password.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Username: %q}", c.Username)
}

// Accessor reads secrets using whatever client the provider currently holds.
type Accessor struct {
	provider ClientProvider
	log      logr.Logger
}

// NewAccessor creates an Accessor.
func NewAccessor(provider ClientProvider, log logr.Logger) *Accessor {
	return &Accessor{
		provider: provider,
		log:      log.WithName("secrets"),
	}
}

// Read returns every field stored at path.
func (a *Accessor) Read(ctx context.Context, path string) (map[string]string, error) {
	log := logger.WithOperation(logger.WithVaultPath(a.log, path), logger.OpRead)

	client, err := a.provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	data, err := client.Read(ctx, path)
	if err != nil {
		metrics.IncrementSecretRead(false)
		return nil, err
	}
	metrics.IncrementSecretRead(true)
	log.V(1).Info("read secret", "fields", len(data))
	return data, nil
}

// Credentials reads the username and password stored at path. Both fields
// must be present.
func (a *Accessor) Credentials(ctx context.Context, path string) (*Credentials, error) {
	data, err := a.Read(ctx, path)
	if err != nil {
		return nil, err
	}

	username, ok := data[UsernameField]
	if !ok {
		return nil, fmt.Errorf("secret %s has no %s field", path, UsernameField)
	}
	password, ok := data[PasswordField]
	if !ok {
		return nil, fmt.Errorf("secret %s has no %s field", path, PasswordField)
	}

	return &Credentials{
		Username: username,
		Password: password,
	}, nil
}
