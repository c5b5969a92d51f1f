package permission

import (
	customValidation "github.com/frahmantamala/identity-service/internal/core/common/validation"
	validation "github.com/jellydator/validation"
)

type CreatePermissionDTO struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (d *CreatePermissionDTO) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Key,
			validation.Required,
			customValidation.NotBlank,
			customValidation.PermissionKey,
		),
		validation.Field(&d.Name,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 128),
		),
		validation.Field(&d.Description, validation.Length(0, 512)),
	)
}

// UpdateUserPermissionsDTO is the body of both assign and revoke.
type UpdateUserPermissionsDTO struct {
	Permissions []string `json:"permissions"`
}

func (d *UpdateUserPermissionsDTO) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Permissions, validation.NotNil),
	)
}

type PermissionsResponse struct {
	Permissions []*Permission `json:"permissions"`
}

type UserPermissionsResponse struct {
	UserID      string   `json:"userId"`
	Permissions []string `json:"permissions"`
}
