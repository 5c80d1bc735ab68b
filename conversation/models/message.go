package models

import (
	"time"
)

// Sender kinds
const (
	SenderUser      = "USER"
	SenderCounselor = "COUNSELOR"
)

// Message kinds
const (
	TypeText   = "TEXT"
	TypeImage  = "IMAGE"
	TypeVoice  = "VOICE"
	TypeSystem = "SYSTEM"
)

// Conversation phases
const (
	PhasePreConsultation = "PRE_CONSULTATION"
	PhaseInConsultation  = "IN_CONSULTATION"
	PhaseFollowUp        = "FOLLOW_UP"
)

// ValidSenderKind reports whether kind names a known sender type
func ValidSenderKind(kind string) bool {
	return kind == SenderUser || kind == SenderCounselor
}

// ChannelKind returns the lowercase destination-key form of a sender kind
func ChannelKind(kind string) string {
	if kind == SenderCounselor {
		return "counselor"
	}
	return "user"
}

// ConversationMessage is one chat turn between a user and a counselor.
// A conversation is identified by the (user id, counselor id) pair;
// messages are its source of truth, ordered by sent time. Rows are
// immutable once persisted except for the read flag.
type ConversationMessage struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	ExternalID       string    `json:"external_id" gorm:"index"`
	AppointmentID    *uint     `json:"appointment_id" gorm:"index"`
	SenderType       string    `json:"sender_type"`
	MessageType      string    `json:"message_type"`
	Content          string    `json:"content"`
	MediaURL         string    `json:"media_url"`
	DurationSeconds  *int      `json:"duration_seconds"`
	SentTime         time.Time `json:"sent_time"`
	ReadStatus       bool      `json:"read_status" gorm:"default:false"`
	UserID           uint      `json:"user_id" gorm:"index"`
	CounselorID      uint      `json:"counselor_id" gorm:"index"`
	ConversationType string    `json:"conversation_type"`
	CreatedAt        time.Time `json:"created_at"`
}
