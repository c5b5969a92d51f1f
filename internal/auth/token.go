package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/identity-service/internal"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
)

const (
	refreshSecretBytes = 64
	refreshSaltBytes   = 16
	refreshHashBytes   = 32
	refreshIterations  = 100_000

	accessTokenLeeway = time.Minute
)

var (
	ErrSigningKeyTooShort = fmt.Errorf("signing key must be at least %d bytes", internal.MinSigningKeyLength)
	ErrMalformedToken     = errors.New("malformed refresh token")
)

// Claims is the payload of an access token.
type Claims struct {
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Subject is the part of a user an access token describes.
type Subject struct {
	ID    string
	Email string
	Name  string
}

// RefreshTokenMint is a freshly generated refresh token. Token is handed to
// the client exactly once; Record is what gets stored.
type RefreshTokenMint struct {
	Token  string
	Record *RefreshToken
}

type TokenIssuer struct {
	signingKey      []byte
	issuer          string
	audience        string
	accessLifetime  time.Duration
	refreshLifetime time.Duration
	now             func() time.Time
}

type IssuerOption func(*TokenIssuer)

// WithClock overrides the time source used for minting and validation.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *TokenIssuer) {
		i.now = now
	}
}

func NewTokenIssuer(cfg internal.SecurityConfig, opts ...IssuerOption) (*TokenIssuer, error) {
	if len(cfg.SigningKey) < internal.MinSigningKeyLength {
		return nil, ErrSigningKeyTooShort
	}
	i := &TokenIssuer{
		signingKey:      []byte(cfg.SigningKey),
		issuer:          cfg.Issuer,
		audience:        cfg.Audience,
		accessLifetime:  cfg.AccessTokenLifetime(),
		refreshLifetime: cfg.RefreshTokenLifetime(),
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func (i *TokenIssuer) Now() time.Time {
	return i.now()
}

func (i *TokenIssuer) RefreshLifetime() time.Duration {
	return i.refreshLifetime
}

// MintAccessToken signs an HS256 token carrying one permissions entry per key.
func (i *TokenIssuer) MintAccessToken(sub Subject, permissions []string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.accessLifetime)

	if permissions == nil {
		permissions = []string{}
	}
	claims := &Claims{
		Email:       sub.Email,
		Name:        strings.TrimSpace(sub.Name),
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.ID,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseAccessToken validates signature, issuer, audience and lifetime.
func (i *TokenIssuer) ParseAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return i.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithLeeway(accessTokenLeeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// MintRefreshToken returns "<idHex>.<base64 secret>" and the record to store.
// The record has no UserID yet.
func (i *TokenIssuer) MintRefreshToken(originIP string) (*RefreshTokenMint, error) {
	secret := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	salt := make([]byte, refreshSaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	id := uuid.New()
	token := idHex(id) + "." + base64.StdEncoding.EncodeToString(secret)
	now := i.now()

	return &RefreshTokenMint{
		Token: token,
		Record: &RefreshToken{
			ID:          id.String(),
			TokenHash:   base64.StdEncoding.EncodeToString(hashRefreshToken(token, salt)),
			Salt:        base64.StdEncoding.EncodeToString(salt),
			ExpiresAt:   now.Add(i.refreshLifetime),
			CreatedAt:   now,
			CreatedByIP: originIP,
		},
	}, nil
}

// VerifyRefreshToken always derives and compares the hash before looking at
// the record's state, so dead and mismatching tokens cost the same.
func (i *TokenIssuer) VerifyRefreshToken(provided string, record *RefreshToken) bool {
	if record == nil {
		return false
	}

	salt, saltErr := base64.StdEncoding.DecodeString(record.Salt)
	expected, hashErr := base64.StdEncoding.DecodeString(record.TokenHash)
	computed := hashRefreshToken(provided, salt)

	match := subtle.ConstantTimeCompare(computed, expected) == 1
	return match && saltErr == nil && hashErr == nil && record.IsActive(i.now())
}

// ParseRefreshToken extracts the record id from the public token prefix.
func (i *TokenIssuer) ParseRefreshToken(token string) (string, error) {
	prefix, secret, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || len(prefix) != 32 || secret == "" {
		return "", ErrMalformedToken
	}
	id, err := uuid.Parse(prefix)
	if err != nil {
		return "", ErrMalformedToken
	}
	return id.String(), nil
}

func hashRefreshToken(token string, salt []byte) []byte {
	return pbkdf2.Key([]byte(token), salt, refreshIterations, refreshHashBytes, sha256.New)
}

func idHex(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}
