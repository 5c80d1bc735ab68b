package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Intake request statuses. MATCHED is terminal: there is no
// re-matching or cancellation transition.
const (
	StatusPending = "PENDING"
	StatusMatched = "MATCHED"
)

// Attachment is an uploaded image with the text the OCR collaborator
// recognized in it. Only the recognized text feeds matching.
type Attachment struct {
	URL            string `json:"url"`
	RecognizedText string `json:"recognizedText"`
}

// AttachmentList stores attachments as a JSON array column. Parsing
// happens once here at the model edge, not in business logic.
type AttachmentList []Attachment

// Value implements driver.Valuer
func (l AttachmentList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (l *AttachmentList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for AttachmentList: %T", value)
	}

	if len(data) == 0 {
		*l = nil
		return nil
	}

	return json.Unmarshal(data, l)
}

// RecognizedTexts returns the non-empty recognized text blocks
func (l AttachmentList) RecognizedTexts() []string {
	texts := make([]string, 0, len(l))
	for _, a := range l {
		if a.RecognizedText != "" {
			texts = append(texts, a.RecognizedText)
		}
	}
	return texts
}

// IntakeRequest is a user's submitted request for counseling help.
// Invariant: MatchedCounselorID and MatchedTime are both nil until
// the matching transition sets them together with status MATCHED.
type IntakeRequest struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	UserID             uint           `json:"user_id" gorm:"index"`
	ProblemDescription string         `json:"problem_description"`
	ProblemDuration    string         `json:"problem_duration"`
	PreferredMethod    string         `json:"preferred_method"`
	AttachedImages     AttachmentList `json:"attached_images" gorm:"type:text"`
	MatchedCounselorID *uint          `json:"matched_counselor_id" gorm:"index"`
	Status             string         `json:"status" gorm:"index;default:PENDING"`
	CreatedTime        time.Time      `json:"created_time"`
	MatchedTime        *time.Time     `json:"matched_time"`
}

// SubmitRequest is the request structure for creating an intake request
type SubmitRequest struct {
	UserID             uint         `json:"user_id" binding:"required"`
	ProblemDescription string       `json:"problem_description" binding:"required"`
	ProblemDuration    string       `json:"problem_duration"`
	PreferredMethod    string       `json:"preferred_method"`
	AttachedImages     []Attachment `json:"attached_images"`
}
