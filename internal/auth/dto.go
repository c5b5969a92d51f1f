package auth

import (
	"strings"
	"time"

	customValidation "github.com/frahmantamala/identity-service/internal/core/common/validation"
	validation "github.com/jellydator/validation"
)

type RegisterDTO struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (d *RegisterDTO) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Email, validation.Required, customValidation.NotBlank, customValidation.Email, validation.Length(0, 256)),
		validation.Field(&d.Password, validation.Required, customValidation.Password),
		validation.Field(&d.FirstName, validation.Length(0, 100)),
		validation.Field(&d.LastName, validation.Length(0, 100)),
	)
}

func (d *RegisterDTO) Normalize() {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
}

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d *LoginDTO) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Email, validation.Required, customValidation.NotBlank),
		validation.Field(&d.Password, validation.Required),
	)
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refreshToken"`
}

func (d *RefreshTokenDTO) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.RefreshToken, validation.Required, customValidation.NotBlank),
	)
}

type AuthUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type AuthResponse struct {
	AccessToken              string    `json:"accessToken"`
	AccessTokenExpiresAtUtc  time.Time `json:"accessTokenExpiresAtUtc"`
	RefreshToken             string    `json:"refreshToken"`
	RefreshTokenExpiresAtUtc time.Time `json:"refreshTokenExpiresAtUtc"`
	User                     AuthUser  `json:"user"`
	Permissions              []string  `json:"permissions"`
}
