package permission

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/core/events"
)

type AssignmentService struct {
	permissions RepositoryAPI
	assignments AssignmentRepositoryAPI
	publisher   events.Publisher
	logger      *slog.Logger
}

func NewAssignmentService(permissions RepositoryAPI, assignments AssignmentRepositoryAPI, publisher events.Publisher, logger *slog.Logger) *AssignmentService {
	return &AssignmentService{
		permissions: permissions,
		assignments: assignments,
		publisher:   publisher,
		logger:      logger,
	}
}

// Assign grants every key the user does not already hold and publishes one
// permission.granted event per new grant. The user must exist and every key
// must be registered; held keys are skipped.
func (s *AssignmentService) Assign(ctx context.Context, userID string, keys []string) error {
	granted, err := s.Grant(ctx, userID, keys)
	if err != nil {
		return err
	}
	s.PublishGranted(ctx, userID, granted, time.Now().UTC())
	return nil
}

// Grant stores the missing grants and returns their keys without publishing
// anything. Callers running inside a transaction publish once it commits.
func (s *AssignmentService) Grant(ctx context.Context, userID string, keys []string) ([]string, error) {
	normalized := NormalizeKeys(keys)
	if len(normalized) == 0 {
		return nil, nil
	}

	exists, err := s.assignments.UserExists(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to look up user", err)
	}
	if !exists {
		return nil, apperrors.ErrUserNotFound
	}

	rows, err := s.permissions.GetByKeys(ctx, normalized)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to look up permissions", err)
	}

	idByKey := make(map[string]string, len(rows))
	for _, row := range rows {
		idByKey[row.Key] = row.ID
	}

	var missing []string
	for _, key := range normalized {
		if _, ok := idByKey[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("Permissions not found: %s", strings.Join(missing, ", ")),
			apperrors.ErrCodeUnknownPermissions,
		).WithDetails(map[string][]string{"missing": missing})
	}

	held, err := s.heldKeys(ctx, userID)
	if err != nil {
		return nil, err
	}

	var grantIDs, grantKeys []string
	for _, key := range normalized {
		if _, ok := held[key]; ok {
			continue
		}
		grantIDs = append(grantIDs, idByKey[key])
		grantKeys = append(grantKeys, key)
	}
	if len(grantIDs) == 0 {
		return nil, nil
	}

	if err := s.assignments.Grant(ctx, userID, grantIDs, time.Now().UTC()); err != nil {
		return nil, apperrors.NewInternalError("failed to grant permissions", err)
	}
	return grantKeys, nil
}

// PublishGranted emits permission.granted for keys returned by Grant.
func (s *AssignmentService) PublishGranted(ctx context.Context, userID string, keys []string, at time.Time) {
	for _, key := range keys {
		s.publish(ctx, events.NewPermissionGrantedEvent(userID, key, at))
	}
}

// Revoke removes the keys the user holds. Unknown or unheld keys are ignored.
func (s *AssignmentService) Revoke(ctx context.Context, userID string, keys []string) error {
	normalized := NormalizeKeys(keys)
	if len(normalized) == 0 {
		return nil
	}

	held, err := s.heldKeys(ctx, userID)
	if err != nil {
		return err
	}

	var toRevoke []string
	for _, key := range normalized {
		if _, ok := held[key]; ok {
			toRevoke = append(toRevoke, key)
		}
	}
	if len(toRevoke) == 0 {
		return nil
	}

	rows, err := s.permissions.GetByKeys(ctx, toRevoke)
	if err != nil {
		return apperrors.NewInternalError("failed to look up permissions", err)
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	if err := s.assignments.Revoke(ctx, userID, ids); err != nil {
		return apperrors.NewInternalError("failed to revoke permissions", err)
	}

	now := time.Now().UTC()
	for _, row := range rows {
		s.publish(ctx, events.NewPermissionRevokedEvent(userID, row.Key, now))
	}
	return nil
}

// UserPermissions lists a user's keys, failing with NotFound for unknown users.
func (s *AssignmentService) UserPermissions(ctx context.Context, userID string) ([]string, error) {
	exists, err := s.assignments.UserExists(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to look up user", err)
	}
	if !exists {
		return nil, apperrors.ErrUserNotFound
	}

	keys, err := NewResolver(s.assignments).GetUserPermissions(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to resolve permissions", err)
	}
	return keys, nil
}

func (s *AssignmentService) heldKeys(ctx context.Context, userID string) (map[string]struct{}, error) {
	keys, err := s.assignments.GetUserPermissionKeys(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load user permissions", err)
	}
	held := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		held[NormalizeKey(k)] = struct{}{}
	}
	return held, nil
}

func (s *AssignmentService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish permission event", "event_type", event.EventType(), "error", err)
	}
}
