package auth_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	apperrors "github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/auth"
	tokenDatamodel "github.com/frahmantamala/identity-service/internal/core/datamodel/token"
	userDatamodel "github.com/frahmantamala/identity-service/internal/core/datamodel/user"
	"github.com/frahmantamala/identity-service/internal/core/events"
	"github.com/frahmantamala/identity-service/internal/permission"
	"github.com/google/uuid"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("AuthService", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	ginkgo.BeforeEach(func() {
		f = newFixture()
		ctx = context.Background()
	})

	ginkgo.Describe("Register", func() {
		ginkgo.It("grants the full catalog to the first user and the baseline to later users", func() {
			// When
			first := f.register("first@example.com")
			second := f.register("second@example.com")

			// Then
			gomega.Expect(first.Permissions).To(gomega.ConsistOf(permission.Catalog()))
			gomega.Expect(second.Permissions).To(gomega.Equal([]string{permission.ViewUsers}))
		})

		ginkgo.It("returns tokens, a lowercased email and publishes the registration", func() {
			resp := f.register("  Mixed.Case@Example.COM ")

			gomega.Expect(resp.AccessToken).ToNot(gomega.BeEmpty())
			gomega.Expect(resp.RefreshToken).ToNot(gomega.BeEmpty())
			gomega.Expect(resp.User.Email).To(gomega.Equal("mixed.case@example.com"))
			gomega.Expect(resp.User.FirstName).To(gomega.Equal("Test"))
			gomega.Expect(f.publisher.count(events.EventTypeUserRegistered)).To(gomega.Equal(1))

			claims, err := f.issuer.ParseAccessToken(resp.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.Subject).To(gomega.Equal(resp.User.ID))
			gomega.Expect(claims.Name).To(gomega.Equal("Test User"))
		})

		ginkgo.It("rejects a duplicate email in any casing with a conflict", func() {
			f.register("dup@example.com")

			_, err := f.service.Register(ctx, auth.RegisterDTO{
				Email:    "DUP@EXAMPLE.com",
				Password: "another-password",
			}, "")

			gomega.Expect(err).To(gomega.MatchError(apperrors.ErrEmailTaken))
			appErr, ok := apperrors.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(apperrors.ErrorTypeConflict))
		})

		ginkgo.It("purges the new user's expired refresh tokens once committed", func() {
			resp := f.register("sweep@example.com")

			gomega.Expect(f.tokens.purges()).To(gomega.Equal([]string{resp.User.ID}))
		})

		ginkgo.It("publishes one grant per default permission after commit", func() {
			f.register("first@example.com")
			f.register("second@example.com")

			gomega.Expect(f.publisher.count(events.EventTypePermissionGranted)).To(gomega.Equal(len(permission.Catalog()) + 1))
		})

		ginkgo.It("publishes nothing when issuing the tokens fails", func() {
			f.tokens.failInserts(errors.New("disk full"))

			_, err := f.service.Register(ctx, auth.RegisterDTO{
				Email:    "rollback@example.com",
				Password: "correct-horse-battery",
			}, "")

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(f.publisher.count(events.EventTypePermissionGranted)).To(gomega.BeZero())
			gomega.Expect(f.publisher.count(events.EventTypeUserRegistered)).To(gomega.BeZero())

			var users, grants int64
			gomega.Expect(f.db.Model(&userDatamodel.User{}).Count(&users).Error).To(gomega.Succeed())
			gomega.Expect(f.db.Model(&userDatamodel.UserPermission{}).Count(&grants).Error).To(gomega.Succeed())
			gomega.Expect(users).To(gomega.BeZero())
			gomega.Expect(grants).To(gomega.BeZero())
		})

		ginkgo.It("validates input before touching the store", func() {
			_, err := f.service.Register(ctx, auth.RegisterDTO{Email: "not-an-email", Password: "short"}, "")

			appErr, ok := apperrors.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(apperrors.ErrorTypeValidation))

			var n int64
			gomega.Expect(f.db.Model(&userDatamodel.User{}).Count(&n).Error).To(gomega.Succeed())
			gomega.Expect(n).To(gomega.BeZero())
		})
	})

	ginkgo.Describe("Login", func() {
		ginkgo.BeforeEach(func() {
			f.register("login@example.com")
		})

		ginkgo.It("signs in with the email in any casing", func() {
			resp, err := f.service.Login(ctx, auth.LoginDTO{Email: " LOGIN@example.com", Password: "correct-horse-battery"}, "10.0.0.2")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.User.Email).To(gomega.Equal("login@example.com"))
			gomega.Expect(f.publisher.count(events.EventTypeLoginSucceeded)).To(gomega.Equal(1))
		})

		ginkgo.It("answers a wrong password and an unknown email identically", func() {
			_, wrongPassword := f.service.Login(ctx, auth.LoginDTO{Email: "login@example.com", Password: "nope-nope-nope"}, "")
			_, unknownEmail := f.service.Login(ctx, auth.LoginDTO{Email: "ghost@example.com", Password: "nope-nope-nope"}, "")

			gomega.Expect(wrongPassword).To(gomega.MatchError(apperrors.ErrInvalidCredentials))
			gomega.Expect(unknownEmail).To(gomega.MatchError(apperrors.ErrInvalidCredentials))
			gomega.Expect(wrongPassword.Error()).To(gomega.Equal(unknownEmail.Error()))
			gomega.Expect(f.publisher.count(events.EventTypeLoginFailed)).To(gomega.Equal(2))
		})

		ginkgo.It("refuses inactive users with the same error", func() {
			gomega.Expect(f.db.Model(&userDatamodel.User{}).
				Where("email = ?", "login@example.com").
				Update("is_active", false).Error).To(gomega.Succeed())

			_, err := f.service.Login(ctx, auth.LoginDTO{Email: "login@example.com", Password: "correct-horse-battery"}, "")

			gomega.Expect(err).To(gomega.MatchError(apperrors.ErrInvalidCredentials))
		})

		ginkgo.It("purges the user's expired refresh tokens", func() {
			var u userDatamodel.User
			gomega.Expect(f.db.Where("email = ?", "login@example.com").First(&u).Error).To(gomega.Succeed())
			expiredID := uuid.NewString()
			gomega.Expect(f.db.Create(&tokenDatamodel.RefreshToken{
				ID:        expiredID,
				UserID:    u.ID,
				TokenHash: "old-hash",
				Salt:      "old-salt",
				ExpiresAt: f.clock.Now().Add(-time.Hour),
				CreatedAt: f.clock.Now().Add(-8 * 24 * time.Hour),
			}).Error).To(gomega.Succeed())

			_, err := f.service.Login(ctx, auth.LoginDTO{Email: "login@example.com", Password: "correct-horse-battery"}, "")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			row, err := f.tokens.GetByID(ctx, expiredID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(row).To(gomega.BeNil())
		})
	})

	ginkgo.Describe("Refresh", func() {
		var registered *auth.AuthResponse

		ginkgo.BeforeEach(func() {
			registered = f.register("refresh@example.com")
		})

		recordFor := func(token string) *tokenDatamodel.RefreshToken {
			id, err := f.issuer.ParseRefreshToken(token)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			row, err := f.tokens.GetByID(ctx, id)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			return row
		}

		ginkgo.It("rotates a fresh token and retires the old record", func() {
			// When
			rotated, err := f.service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: registered.RefreshToken}, "10.0.0.3")

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(rotated.RefreshToken).ToNot(gomega.Equal(registered.RefreshToken))

			old := recordFor(registered.RefreshToken)
			gomega.Expect(old.RevokedAt).ToNot(gomega.BeNil())
			gomega.Expect(*old.RevokedByIP).To(gomega.Equal("10.0.0.3"))
			gomega.Expect(auth.FromDataModel(old).IsActive(f.clock.Now())).To(gomega.BeFalse())
			gomega.Expect(f.publisher.count(events.EventTypeTokenRotated)).To(gomega.Equal(1))
		})

		ginkgo.It("accepts a token only once and reports the replay", func() {
			_, err := f.service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: registered.RefreshToken}, "")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = f.service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: registered.RefreshToken}, "")

			gomega.Expect(err).To(gomega.MatchError(apperrors.ErrInvalidRefreshToken))
			gomega.Expect(f.publisher.count(events.EventTypeTokenReplayDetected)).To(gomega.Equal(1))
		})

		ginkgo.It("lets exactly one of two concurrent refreshes win", func() {
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				successes int
				failures  []error
			)
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func() {
					defer ginkgo.GinkgoRecover()
					defer wg.Done()
					_, err := f.service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: registered.RefreshToken}, "")
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						successes++
					} else {
						failures = append(failures, err)
					}
				}()
			}
			wg.Wait()

			gomega.Expect(successes).To(gomega.Equal(1))
			gomega.Expect(failures).To(gomega.HaveLen(1))
			gomega.Expect(failures[0]).To(gomega.MatchError(apperrors.ErrInvalidRefreshToken))

			var live int64
			gomega.Expect(f.db.Model(&tokenDatamodel.RefreshToken{}).Where("revoked_at IS NULL").Count(&live).Error).To(gomega.Succeed())
			gomega.Expect(live).To(gomega.BeEquivalentTo(1))
		})

		ginkgo.It("revokes a live record presented with the wrong secret", func() {
			prefix, _, _ := strings.Cut(registered.RefreshToken, ".")
			forged := prefix + ".Zm9yZ2VkLXNlY3JldA=="

			_, err := f.service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: forged}, "10.6.6.6")
			gomega.Expect(err).To(gomega.MatchError(apperrors.ErrInvalidRefreshToken))
			gomega.Expect(f.publisher.count(events.EventTypeTokenRevoked)).To(gomega.Equal(1))

			gomega.Expect(recordFor(registered.RefreshToken).RevokedAt).ToNot(gomega.BeNil())
			_, err = f.service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: registered.RefreshToken}, "")
			gomega.Expect(err).To(gomega.MatchError(apperrors.ErrInvalidRefreshToken))
		})

		ginkgo.It("revokes an expired token it cannot validate", func() {
			f.clock.Advance(8 * 24 * time.Hour)

			_, err := f.service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: registered.RefreshToken}, "")

			gomega.Expect(err).To(gomega.MatchError(apperrors.ErrInvalidRefreshToken))
			gomega.Expect(recordFor(registered.RefreshToken).RevokedAt).ToNot(gomega.BeNil())
			gomega.Expect(f.publisher.count(events.EventTypeTokenRevoked)).To(gomega.Equal(1))
			gomega.Expect(f.publisher.count(events.EventTypeTokenReplayDetected)).To(gomega.BeZero())
		})

		ginkgo.It("revokes an expired token presented with the wrong secret", func() {
			f.clock.Advance(8 * 24 * time.Hour)
			prefix, _, _ := strings.Cut(registered.RefreshToken, ".")

			_, err := f.service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: prefix + ".Zm9yZ2VkLXNlY3JldA=="}, "10.6.6.6")

			gomega.Expect(err).To(gomega.MatchError(apperrors.ErrInvalidRefreshToken))
			record := recordFor(registered.RefreshToken)
			gomega.Expect(record.RevokedAt).ToNot(gomega.BeNil())
			gomega.Expect(record.RevokedByIP).To(gomega.HaveValue(gomega.Equal("10.6.6.6")))
		})

		ginkgo.It("rejects malformed and unknown tokens", func() {
			_, err := f.service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: "garbage"}, "")
			gomega.Expect(err).To(gomega.MatchError(apperrors.ErrInvalidRefreshToken))

			unknown := strings.ReplaceAll(uuid.NewString(), "-", "") + ".c2VjcmV0"
			_, err = f.service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: unknown}, "")
			gomega.Expect(err).To(gomega.MatchError(apperrors.ErrInvalidRefreshToken))
		})

		ginkgo.It("re-resolves permissions instead of copying the old claims", func() {
			gomega.Expect(f.assignments.Revoke(ctx, registered.User.ID, []string{permission.ManageUsers})).To(gomega.Succeed())

			rotated, err := f.service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: registered.RefreshToken}, "")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(registered.Permissions).To(gomega.ContainElement(permission.ManageUsers))
			gomega.Expect(rotated.Permissions).ToNot(gomega.ContainElement(permission.ManageUsers))
		})
	})

	ginkgo.Describe("PurgeExpired", func() {
		ginkgo.It("removes expired tokens of every user", func() {
			f.register("a@example.com")
			f.register("b@example.com")
			f.clock.Advance(8 * 24 * time.Hour)

			n, err := f.service.PurgeExpired(ctx)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(n).To(gomega.BeEquivalentTo(2))
		})
	})
})
