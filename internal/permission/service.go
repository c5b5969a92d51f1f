package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/frahmantamala/identity-service/internal"
	customValidation "github.com/frahmantamala/identity-service/internal/core/common/validation"
	"github.com/google/uuid"
)

// ErrDuplicateKey is returned by repositories when the unique key index rejects an insert.
var ErrDuplicateKey = errors.New("permission key already exists")

// Service is the permission directory.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) Create(ctx context.Context, dto CreatePermissionDTO) (*Permission, error) {
	if err := dto.Validate(); err != nil {
		return nil, customValidation.WrapValidationError(err)
	}

	key := NormalizeKey(dto.Key)

	existing, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to look up permission", err)
	}
	if existing != nil {
		return nil, conflict(key)
	}

	p := &Permission{
		ID:          uuid.NewString(),
		Key:         key,
		Name:        strings.TrimSpace(dto.Name),
		Description: strings.TrimSpace(dto.Description),
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, ToDataModel(p)); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return nil, conflict(key)
		}
		s.logger.ErrorContext(ctx, "failed to create permission", "key", key, "error", err)
		return nil, apperrors.NewInternalError("failed to create permission", err)
	}

	s.logger.InfoContext(ctx, "permission created", "key", key, "id", p.ID)
	return p, nil
}

func (s *Service) GetAll(ctx context.Context) ([]*Permission, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list permissions", err)
	}

	out := make([]*Permission, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) GetByKey(ctx context.Context, key string) (*Permission, error) {
	key = NormalizeKey(key)
	if key == "" {
		return nil, apperrors.ErrPermissionNotFound
	}

	row, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to look up permission", err)
	}
	if row == nil {
		return nil, apperrors.ErrPermissionNotFound
	}
	return FromDataModel(row), nil
}

// EnsureCatalog creates any built-in permission that is not registered yet
// and returns the keys it created.
func (s *Service) EnsureCatalog(ctx context.Context) ([]string, error) {
	var created []string
	for _, key := range Catalog() {
		existing, err := s.repo.GetByKey(ctx, key)
		if err != nil {
			return created, fmt.Errorf("look up %s: %w", key, err)
		}
		if existing != nil {
			continue
		}

		name, description := CatalogEntry(key)
		err = s.repo.Create(ctx, ToDataModel(&Permission{
			ID:          uuid.NewString(),
			Key:         key,
			Name:        name,
			Description: description,
			CreatedAt:   time.Now().UTC(),
		}))
		if err != nil && !errors.Is(err, ErrDuplicateKey) {
			return created, fmt.Errorf("create %s: %w", key, err)
		}
		if err == nil {
			created = append(created, key)
		}
	}

	if len(created) > 0 {
		s.logger.InfoContext(ctx, "permission catalog seeded", "created", created)
	}
	return created, nil
}

func conflict(key string) *apperrors.AppError {
	return apperrors.NewConflictError(fmt.Sprintf("Permission '%s' already exists", key), apperrors.ErrCodePermissionExists)
}
