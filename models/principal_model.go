package models

import (
	"encoding/hex"
	"strings"
)

// Principal is the authenticated caller resolved by the JWT guard.
type Principal struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// CanonicalID reduces an identifier to the textual form used for ownership.
// ObjectID hex strings compare case-insensitively, and a JSON-quoted id
// ("\"65f...\"") equals its bare form.
func CanonicalID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) >= 2 && id[0] == '"' && id[len(id)-1] == '"' {
		id = strings.TrimSpace(id[1 : len(id)-1])
	}
	if len(id) == 24 {
		if _, err := hex.DecodeString(id); err == nil {
			return strings.ToLower(id)
		}
	}
	return id
}

// OwnerEqual reports whether note belongs to p. A nil note is never owned,
// and an empty principal id owns nothing.
func OwnerEqual(p Principal, note *Note) bool {
	if note == nil {
		return false
	}
	owner := CanonicalID(p.ID)
	if owner == "" {
		return false
	}
	return owner == CanonicalID(note.Author)
}
