package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	apperrors "github.com/frahmantamala/identity-service/internal"
	customValidation "github.com/frahmantamala/identity-service/internal/core/common/validation"
	"github.com/frahmantamala/identity-service/internal/core/events"
	"github.com/frahmantamala/identity-service/internal/database"
	"github.com/frahmantamala/identity-service/internal/permission"
	"github.com/frahmantamala/identity-service/internal/user"
	"github.com/google/uuid"
)

const dummyPassword = "timing-equalizer-password"

// errRotationLost means another caller revoked the token between verification
// and the compare-and-swap.
var errRotationLost = errors.New("refresh token already rotated")

type PermissionResolver interface {
	GetUserPermissions(ctx context.Context, userID string) ([]string, error)
}

// PermissionGranter stores grants without publishing them, so events for a
// rolled back registration never leave the service.
type PermissionGranter interface {
	Grant(ctx context.Context, userID string, keys []string) ([]string, error)
}

// Dependencies groups the collaborators of the authentication Service.
type Dependencies struct {
	Users     user.RepositoryAPI
	Tokens    RefreshTokenRepositoryAPI
	Issuer    *TokenIssuer
	Hasher    PasswordHasher
	Resolver  PermissionResolver
	Granter   PermissionGranter
	TxManager database.TxManager
	Publisher events.Publisher
	Logger    *slog.Logger
}

type Service struct {
	users     user.RepositoryAPI
	tokens    RefreshTokenRepositoryAPI
	issuer    *TokenIssuer
	hasher    PasswordHasher
	resolver  PermissionResolver
	granter   PermissionGranter
	txManager database.TxManager
	publisher events.Publisher
	logger    *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewService(deps Dependencies) *Service {
	return &Service{
		users:     deps.Users,
		tokens:    deps.Tokens,
		issuer:    deps.Issuer,
		hasher:    deps.Hasher,
		resolver:  deps.Resolver,
		granter:   deps.Granter,
		txManager: deps.TxManager,
		publisher: deps.Publisher,
		logger:    deps.Logger,
	}
}

// Register creates the account, grants its default permissions and signs it
// in. The first account ever created receives the whole catalog.
func (s *Service) Register(ctx context.Context, dto RegisterDTO, ip string) (*AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, customValidation.WrapValidationError(err)
	}
	dto.Normalize()

	existing, err := s.users.GetByNormalizedEmail(ctx, user.NormalizeEmail(dto.Email))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to look up email", err)
	}
	if existing != nil {
		return nil, apperrors.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	newUser := &user.User{
		ID:           uuid.NewString(),
		Email:        dto.Email,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    s.issuer.Now(),
	}

	var resp *AuthResponse
	var tokenID string
	var granted []string
	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		count, err := s.users.Count(ctx)
		if err != nil {
			return apperrors.NewInternalError("failed to count users", err)
		}

		row := user.ToDataModel(newUser)
		if err := s.users.Create(ctx, row); err != nil {
			if errors.Is(err, user.ErrDuplicateEmail) {
				return apperrors.ErrEmailTaken
			}
			return apperrors.NewInternalError("failed to create user", err)
		}
		newUser = user.FromDataModel(row)

		granted, err = s.granter.Grant(ctx, newUser.ID, permission.DefaultKeysFor(count == 0))
		if err != nil {
			return err
		}

		resp, tokenID, err = s.issue(ctx, newUser, ip)
		return err
	})
	if err != nil {
		return nil, err
	}

	now := s.issuer.Now()
	s.logger.InfoContext(ctx, "user registered", "user_id", newUser.ID, "permissions", resp.Permissions)
	s.publish(ctx, events.NewUserRegisteredEvent(newUser.ID, tokenID, ip, now))
	for _, key := range granted {
		s.publish(ctx, events.NewPermissionGrantedEvent(newUser.ID, key, now))
	}
	s.purgeExpired(ctx, newUser.ID)
	return resp, nil
}

// Login answers unknown email, inactive account and wrong password with the
// same error.
func (s *Service) Login(ctx context.Context, dto LoginDTO, ip string) (*AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, customValidation.WrapValidationError(err)
	}

	row, err := s.users.GetByNormalizedEmail(ctx, user.NormalizeEmail(dto.Email))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to look up user", err)
	}

	if row == nil {
		s.hasher.Verify(s.dummy(), dto.Password)
		s.loginFailed(ctx, ip, "unknown_email")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !s.hasher.Verify(row.PasswordHash, dto.Password) {
		s.loginFailed(ctx, ip, "invalid_password")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !row.IsActive {
		s.loginFailed(ctx, ip, "inactive_user")
		return nil, apperrors.ErrInvalidCredentials
	}

	s.purgeExpired(ctx, row.ID)

	resp, tokenID, err := s.issue(ctx, user.FromDataModel(row), ip)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewLoginSucceededEvent(row.ID, tokenID, ip, s.issuer.Now()))
	return resp, nil
}

// Refresh rotates a refresh token. A token is accepted at most once: the old
// record is revoked in the same transaction that stores its replacement.
func (s *Service) Refresh(ctx context.Context, dto RefreshTokenDTO, ip string) (*AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, customValidation.WrapValidationError(err)
	}

	id, err := s.issuer.ParseRefreshToken(dto.RefreshToken)
	if err != nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	row, err := s.tokens.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load refresh token", err)
	}
	if row == nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}
	record := FromDataModel(row)
	now := s.issuer.Now()

	if !s.issuer.VerifyRefreshToken(dto.RefreshToken, record) {
		if record.IsRevoked() {
			s.publish(ctx, events.NewTokenReplayDetectedEvent(record.UserID, record.ID, ip, now))
			return nil, apperrors.ErrInvalidRefreshToken
		}
		reason := "hash_mismatch"
		if !record.IsActive(now) {
			reason = "expired"
		}
		if _, err := s.tokens.Revoke(ctx, record.ID, now, ip); err != nil {
			return nil, apperrors.NewInternalError("failed to revoke refresh token", err)
		}
		s.publish(ctx, events.NewTokenRevokedEvent(record.UserID, record.ID, ip, reason, now))
		return nil, apperrors.ErrInvalidRefreshToken
	}

	owner, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load token owner", err)
	}
	if owner == nil || !owner.IsActive {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	var resp *AuthResponse
	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		revoked, err := s.tokens.Revoke(ctx, record.ID, now, ip)
		if err != nil {
			return apperrors.NewInternalError("failed to revoke refresh token", err)
		}
		if !revoked {
			return errRotationLost
		}

		resp, _, err = s.issue(ctx, user.FromDataModel(owner), ip)
		return err
	})
	if errors.Is(err, errRotationLost) {
		s.publish(ctx, events.NewTokenReplayDetectedEvent(record.UserID, record.ID, ip, now))
		return nil, apperrors.ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewTokenRotatedEvent(record.UserID, record.ID, ip, now))
	s.purgeExpired(ctx, record.UserID)
	return resp, nil
}

// PurgeExpired removes expired refresh tokens of every user.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.tokens.PurgeExpired(ctx, "", s.issuer.Now())
	if err != nil {
		return 0, apperrors.NewInternalError("failed to purge refresh tokens", err)
	}
	return n, nil
}

// issue resolves live permissions, mints both tokens and stores the refresh
// record. It runs on whatever connection ctx carries.
func (s *Service) issue(ctx context.Context, u *user.User, ip string) (*AuthResponse, string, error) {
	perms, err := s.resolver.GetUserPermissions(ctx, u.ID)
	if err != nil {
		return nil, "", apperrors.NewInternalError("failed to resolve permissions", err)
	}

	access, accessExpiresAt, err := s.issuer.MintAccessToken(Subject{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.DisplayName(),
	}, perms)
	if err != nil {
		return nil, "", apperrors.NewInternalError("failed to sign access token", err)
	}

	mint, err := s.issuer.MintRefreshToken(ip)
	if err != nil {
		return nil, "", apperrors.NewInternalError("failed to generate refresh token", err)
	}
	mint.Record.UserID = u.ID
	if err := s.tokens.Create(ctx, ToDataModel(mint.Record)); err != nil {
		return nil, "", apperrors.NewInternalError("failed to store refresh token", err)
	}

	return &AuthResponse{
		AccessToken:              access,
		AccessTokenExpiresAtUtc:  accessExpiresAt,
		RefreshToken:             mint.Token,
		RefreshTokenExpiresAtUtc: mint.Record.ExpiresAt,
		User: AuthUser{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		},
		Permissions: perms,
	}, mint.Record.ID, nil
}

func (s *Service) purgeExpired(ctx context.Context, userID string) {
	n, err := s.tokens.PurgeExpired(ctx, userID, s.issuer.Now())
	if err != nil {
		s.logger.WarnContext(ctx, "failed to purge expired refresh tokens", "user_id", userID, "error", err)
		return
	}
	if n > 0 {
		s.logger.DebugContext(ctx, "purged expired refresh tokens", "user_id", userID, "count", n)
	}
}

func (s *Service) loginFailed(ctx context.Context, ip, reason string) {
	s.publish(ctx, events.NewLoginFailedEvent(ip, reason, s.issuer.Now()))
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Error("failed to prepare dummy password hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
