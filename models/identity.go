package models

import (
	"strings"
	"time"
)

// Identity records which household member performed a write.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Audit carries the creator/editor stamps applied on every write.
type Audit struct {
	CreatedBy Identity  `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedBy Identity  `json:"updatedBy"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeriveName returns the display name for an identity, falling back to the
// local part of the email when no explicit name is set.
func DeriveName(email, name string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	local := email
	if idx := strings.Index(email, "@"); idx > 0 {
		local = email[:idx]
	}
	local = strings.TrimSpace(local)
	if local == "" {
		return ""
	}
	return strings.ToUpper(local[:1]) + local[1:]
}
