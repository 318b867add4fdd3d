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

package token

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-logr/logr"
	"github.com/viant/afs"

	"github.com/navikt/kafka-connect-vault-provider/pkg/logger"
	domainerrors "github.com/navikt/kafka-connect-vault-provider/shared/infrastructure/errors"
)

// Source resolves the Vault token used to start a session.
//
// Resolution order, first match wins:
//
//  1. SourceConfig.Token, if non-empty
//  2. the contents of SourceConfig.TokenPath
//  3. the contents of SourceConfig.DefaultTokenPath, if that file exists
//
// File contents are trimmed of surrounding whitespace. Paths may be plain
// filesystem paths or any URL understood by afs.
type Source struct {
	config SourceConfig
	fs     afs.Service
	log    logr.Logger
}

// NewSource creates a new Source.
func NewSource(config SourceConfig, log logr.Logger) *Source {
	return &Source{
		config: config,
		fs:     afs.New(),
		log:    log.WithName("token-source"),
	}
}

// Resolve returns the token.
// It fails with a ConfigurationError if no origin is configured and with a
// TokenResolutionError if a selected file cannot be read.
func (s *Source) Resolve(ctx context.Context) (string, error) {
	if s.config.Token != "" {
		s.log.V(1).Info("using explicit vault token")
		return s.config.Token, nil
	}

	if s.config.TokenPath != "" {
		s.log.V(1).Info("reading vault token", logger.KeyTokenPath, s.config.TokenPath)
		return s.readToken(ctx, s.config.TokenPath)
	}

	if s.config.DefaultTokenPath != "" {
		exists, err := s.fs.Exists(ctx, s.config.DefaultTokenPath)
		if err != nil {
			return "", domainerrors.NewTokenResolutionError(s.config.DefaultTokenPath, err)
		}
		if exists {
			s.log.V(1).Info("reading vault token from default location", logger.KeyTokenPath, s.config.DefaultTokenPath)
			return s.readToken(ctx, s.config.DefaultTokenPath)
		}
	}

	return "", domainerrors.NewConfigurationError(
		fmt.Sprintf("neither %s or %s is set", TokenEnvVar, TokenPathEnvVar),
	)
}

func (s *Source) readToken(ctx context.Context, path string) (string, error) {
	data, err := s.fs.DownloadWithURL(ctx, path)
	if err != nil {
		return "", domainerrors.NewTokenResolutionError(path, err)
	}
	if !utf8.Valid(data) {
		return "", domainerrors.NewTokenResolutionError(path, fmt.Errorf("token is not valid UTF-8"))
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", domainerrors.NewTokenResolutionError(path, fmt.Errorf("token file is empty"))
	}
	return token, nil
}
