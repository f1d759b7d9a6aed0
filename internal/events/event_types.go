package events

import (
	"time"

	"github.com/vibe-music/vibe-music-server/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionOpened             EventType = "session_opened"
	EventSessionRevoked            EventType = "session_revoked"
	EventVerificationCodeRequested EventType = "verification_code_requested"
)

// RevocationReason explains why a session entry was removed.
type RevocationReason string

const (
	ReasonLogout          RevocationReason = "logout"
	ReasonPasswordChanged RevocationReason = "password_changed"
	ReasonAccountDeleted  RevocationReason = "account_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionOpenedPayload payload.
type SessionOpenedPayload struct {
	Role      domain.Role `json:"role"`
	SubjectID int64       `json:"subject_id"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// SessionRevokedPayload payload.
type SessionRevokedPayload struct {
	Role      domain.Role      `json:"role"`
	SubjectID int64            `json:"subject_id"`
	Reason    RevocationReason `json:"reason"`
}

// VerificationCodeRequestedPayload payload.
type VerificationCodeRequestedPayload struct {
	Email     string        `json:"email"`
	Code      string        `json:"-"`
	ExpiresIn time.Duration `json:"expires_in"`
}
