package events

import "time"

const (
	EventTypeUserRegistered      = "auth.user_registered"
	EventTypeLoginSucceeded      = "auth.login_succeeded"
	EventTypeLoginFailed         = "auth.login_failed"
	EventTypeTokenRotated        = "auth.token_rotated"
	EventTypeTokenRevoked        = "auth.token_revoked"
	EventTypeTokenReplayDetected = "auth.token_replay_detected"
	EventTypePermissionGranted   = "permission.granted"
	EventTypePermissionRevoked   = "permission.revoked"
)

// CredentialEvent records one step in the lifecycle of a user's credentials.
type CredentialEvent struct {
	BaseEvent
	UserID    string `json:"user_id,omitempty"`
	TokenID   string `json:"token_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func newCredentialEvent(eventType, userID, tokenID, ip, reason string, at time.Time) *CredentialEvent {
	data := map[string]interface{}{}
	if userID != "" {
		data["user_id"] = userID
	}
	if tokenID != "" {
		data["token_id"] = tokenID
	}
	if ip != "" {
		data["ip_address"] = ip
	}
	if reason != "" {
		data["reason"] = reason
	}

	return &CredentialEvent{
		BaseEvent: BaseEvent{
			ID:        NewEventID(at),
			Type:      eventType,
			Timestamp: at,
			Data:      data,
		},
		UserID:    userID,
		TokenID:   tokenID,
		IPAddress: ip,
		Reason:    reason,
	}
}

func NewUserRegisteredEvent(userID, tokenID, ip string, at time.Time) *CredentialEvent {
	return newCredentialEvent(EventTypeUserRegistered, userID, tokenID, ip, "", at)
}

func NewLoginSucceededEvent(userID, tokenID, ip string, at time.Time) *CredentialEvent {
	return newCredentialEvent(EventTypeLoginSucceeded, userID, tokenID, ip, "", at)
}

// NewLoginFailedEvent never carries a user id, whether or not the email exists.
func NewLoginFailedEvent(ip, reason string, at time.Time) *CredentialEvent {
	return newCredentialEvent(EventTypeLoginFailed, "", "", ip, reason, at)
}

func NewTokenRotatedEvent(userID, oldTokenID, ip string, at time.Time) *CredentialEvent {
	return newCredentialEvent(EventTypeTokenRotated, userID, oldTokenID, ip, "", at)
}

func NewTokenRevokedEvent(userID, tokenID, ip, reason string, at time.Time) *CredentialEvent {
	return newCredentialEvent(EventTypeTokenRevoked, userID, tokenID, ip, reason, at)
}

func NewTokenReplayDetectedEvent(userID, tokenID, ip string, at time.Time) *CredentialEvent {
	return newCredentialEvent(EventTypeTokenReplayDetected, userID, tokenID, ip, "", at)
}

// PermissionEvent records a grant or revoke of one permission key.
type PermissionEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Key    string `json:"key"`
}

func newPermissionEvent(eventType, userID, key string, at time.Time) *PermissionEvent {
	return &PermissionEvent{
		BaseEvent: BaseEvent{
			ID:        NewEventID(at),
			Type:      eventType,
			Timestamp: at,
			Data: map[string]interface{}{
				"user_id": userID,
				"key":     key,
			},
		},
		UserID: userID,
		Key:    key,
	}
}

func NewPermissionGrantedEvent(userID, key string, at time.Time) *PermissionEvent {
	return newPermissionEvent(EventTypePermissionGranted, userID, key, at)
}

func NewPermissionRevokedEvent(userID, key string, at time.Time) *PermissionEvent {
	return newPermissionEvent(EventTypePermissionRevoked, userID, key, at)
}
