package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Approval statuses for counselors
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// StringList stores a list of short strings as a JSON array column.
// Specialization tags are free-form, so containment checks against
// them are substring based rather than exact.
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
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
func (l *StringList) Scan(value interface{}) error {
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
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}

	if len(data) == 0 {
		*l = nil
		return nil
	}

	return json.Unmarshal(data, l)
}

// Counselor represents an approved (or pending) counselor profile.
// This module only reads counselors; profile management lives in a
// separate admin surface.
type Counselor struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	RealName       string     `json:"real_name"`
	Status         string     `json:"status" gorm:"index;default:PENDING"`
	Specialization StringList `json:"specialization" gorm:"type:text"`
	Introduction   string     `json:"introduction"`
	AvatarURL      string     `json:"avatar_url"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// DisplayName returns the counselor's name for user-facing messages
func (c *Counselor) DisplayName() string {
	if strings.TrimSpace(c.RealName) != "" {
		return c.RealName
	}
	return "心理咨询师"
}
