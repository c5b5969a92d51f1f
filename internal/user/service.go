package user

import (
	"context"
	"log/slog"

	apperrors "github.com/frahmantamala/identity-service/internal"
	userDatamodel "github.com/frahmantamala/identity-service/internal/core/datamodel/user"
)

// PermissionLister is the slice of the permission resolver the user views need.
type PermissionLister interface {
	GetUserPermissions(ctx context.Context, userID string) ([]string, error)
}

type Service struct {
	repo        RepositoryAPI
	permissions PermissionLister
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, permissions PermissionLister, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		permissions: permissions,
		logger:      logger,
	}
}

func (s *Service) GetByID(ctx context.Context, userID string) (*User, error) {
	row, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user by id", err)
	}
	if row == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return s.withPermissions(ctx, FromDataModel(row))
}

// GetAll returns every user ordered by email.
func (s *Service) GetAll(ctx context.Context) ([]*User, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list users", err)
	}
	return s.toUsers(ctx, rows)
}

func (s *Service) GetPaged(ctx context.Context, pageNumber, pageSize int) (*PagedResponse, error) {
	pageNumber, pageSize = ClampPage(pageNumber, pageSize)

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count users", err)
	}

	rows, err := s.repo.GetPage(ctx, (pageNumber-1)*pageSize, pageSize)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list users", err)
	}

	items, err := s.toUsers(ctx, rows)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &PagedResponse{
		Items:           items,
		PageNumber:      pageNumber,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		TotalCount:      total,
		HasNextPage:     pageNumber < totalPages,
		HasPreviousPage: pageNumber > 1,
	}, nil
}

func (s *Service) toUsers(ctx context.Context, rows []*userDatamodel.User) ([]*User, error) {
	out := make([]*User, 0, len(rows))
	for _, row := range rows {
		u, err := s.withPermissions(ctx, FromDataModel(row))
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *Service) withPermissions(ctx context.Context, u *User) (*User, error) {
	perms, err := s.permissions.GetUserPermissions(ctx, u.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to resolve user permissions", "user_id", u.ID, "error", err)
		return nil, apperrors.NewInternalError("failed to get user permissions", err)
	}
	u.Permissions = perms
	return u, nil
}
