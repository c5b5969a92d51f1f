package internal_test

import (
	"time"

	"github.com/frahmantamala/identity-service/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var cfg *internal.Config

	BeforeEach(func() {
		cfg = &internal.Config{
			Server: internal.ServerConfig{
				AllowedOrigins:    "*",
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       15 * time.Second,
			},
			Database: internal.DatabaseConfig{
				Driver:       "postgres",
				Source:       "postgres://localhost/identity",
				MaxOpenConns: 10,
				MaxIdleConns: 2,
			},
			Security: internal.SecurityConfig{
				SigningKey:         "0123456789abcdef0123456789abcdef",
				Issuer:             "identity-service",
				Audience:           "identity-service-clients",
				AccessTokenMinutes: 15,
				RefreshTokenDays:   7,
			},
		}
	})

	It("accepts a complete config", func() {
		Expect(cfg.Validate()).To(Succeed())
	})

	It("rejects a signing key shorter than 32 characters", func() {
		cfg.Security.SigningKey = "too-short"
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("signing_key")))
	})

	It("rejects an unknown authorization mode", func() {
		cfg.Security.AuthorizationMode = "sometimes"
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("authorization_mode")))
	})

	It("rejects non-positive token lifetimes", func() {
		cfg.Security.RefreshTokenDays = 0
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("refresh_token_days")))
	})

	It("collects errors from every section", func() {
		cfg.Database.Source = ""
		cfg.Observability.Logging.Level = "loud"
		err := cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring("database config")))
		Expect(err).To(MatchError(ContainSubstring("logging config")))
	})

	It("derives lifetimes from minutes and days", func() {
		Expect(cfg.Security.AccessTokenLifetime()).To(Equal(15 * time.Minute))
		Expect(cfg.Security.RefreshTokenLifetime()).To(Equal(7 * 24 * time.Hour))
	})

	It("reads overrides from the environment", func() {
		GinkgoT().Setenv("JWT_SIGNING_KEY", "env-signing-key-env-signing-key-00")
		GinkgoT().Setenv("AUTHORIZATION_MODE", internal.AuthorizationModeClaimsFirst)
		GinkgoT().Setenv("ACCESS_TOKEN_MINUTES", "not-a-number")

		env := internal.LoadConfigFromEnv()
		Expect(env.Security.SigningKey).To(Equal("env-signing-key-env-signing-key-00"))
		Expect(env.Security.AuthorizationMode).To(Equal(internal.AuthorizationModeClaimsFirst))
		Expect(env.Security.AccessTokenMinutes).To(Equal(15))
	})
})
