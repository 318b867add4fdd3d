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

package integration

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/navikt/kafka-connect-vault-provider/pkg/secrets"
	"github.com/navikt/kafka-connect-vault-provider/pkg/vault/token"
	"github.com/navikt/kafka-connect-vault-provider/shared/events"
	domainerrors "github.com/navikt/kafka-connect-vault-provider/shared/infrastructure/errors"
)

var _ = Describe("Token Lifecycle", Ordered, Label("token"), func() {
	var ctx context.Context

	newManager := func(src token.SourceConfig, opts ...token.Option) *token.Manager {
		m := token.NewManager(token.Config{
			Address: vaultContainer.Address(),
			Source:  src,
		}, append([]token.Option{token.WithLogger(GinkgoLogr)}, opts...)...)
		DeferCleanup(m.Stop)
		return m
	}

	BeforeAll(func() {
		ctx = suiteCtx

		By("seeding postgres credentials")
		Expect(vaultContainer.WriteKV2(ctx, "postgres/local", map[string]interface{}{
			"username": "kafka-connect",
			"password": "s3cret",
		})).To(Succeed())
	})

	Context("with a renewable token", func() {
		It("validates the token and renews it before it expires", func() {
			tok, err := vaultContainer.CreateToken(ctx, TokenOptions{
				TTL:       6 * time.Second,
				Renewable: true,
				Policies:  []string{CredentialReaderPolicy},
			})
			Expect(err).NotTo(HaveOccurred())

			bus := events.NewEventBus(logr.Discard())
			renewed := make(chan events.TokenRenewed, 8)
			events.Subscribe(bus, func(_ context.Context, e events.TokenRenewed) error {
				renewed <- e
				return nil
			})

			m := newManager(token.SourceConfig{Token: tok}, token.WithEventPublisher(bus))

			By("initializing the client")
			client, err := m.Client(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Status().Renewable).To(BeTrue())

			By("waiting for two renewals")
			Eventually(renewed, 15*time.Second).Should(Receive())
			Eventually(renewed, 15*time.Second).Should(Receive())

			By("reading credentials after the original TTL has passed")
			creds, err := secrets.NewAccessor(m, GinkgoLogr).Credentials(ctx, "secret/data/postgres/local")
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Username).To(Equal("kafka-connect"))
			Expect(creds.Password).To(Equal("s3cret"))

			again, err := m.Client(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(BeIdenticalTo(client))
		})
	})

	Context("with a non-renewable token", func() {
		It("returns a client without scheduling renewal", func() {
			tok, err := vaultContainer.CreateToken(ctx, TokenOptions{
				TTL:       time.Hour,
				Renewable: false,
			})
			Expect(err).NotTo(HaveOccurred())

			bus := events.NewEventBus(logr.Discard())
			notRenewable := make(chan events.TokenNotRenewable, 1)
			events.Subscribe(bus, func(_ context.Context, e events.TokenNotRenewable) error {
				notRenewable <- e
				return nil
			})

			m := newManager(token.SourceConfig{Token: tok}, token.WithEventPublisher(bus))

			_, err = m.Client(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(notRenewable).To(Receive())
			Expect(m.Status().NextRenewal.IsZero()).To(BeTrue())
		})
	})

	Context("with a token file", func() {
		It("reads the token from the configured path", func() {
			tok, err := vaultContainer.CreateToken(ctx, TokenOptions{
				TTL:       time.Hour,
				Renewable: true,
			})
			Expect(err).NotTo(HaveOccurred())

			path := filepath.Join(GinkgoT().TempDir(), "vault_token")
			Expect(os.WriteFile(path, []byte(tok+"\n"), 0o600)).To(Succeed())

			m := newManager(token.SourceConfig{TokenPath: path})
			_, err = m.Client(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Status().Ready).To(BeTrue())
		})
	})

	Context("with a revoked token", func() {
		It("fails with an authentication error", func() {
			tok, err := vaultContainer.CreateToken(ctx, TokenOptions{
				TTL:       time.Hour,
				Renewable: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(vaultContainer.RevokeToken(ctx, tok)).To(Succeed())

			m := newManager(token.SourceConfig{Token: tok})
			_, err = m.Client(ctx)
			Expect(domainerrors.IsAuthenticationError(err)).To(BeTrue(), "got %v", err)
		})
	})
})
