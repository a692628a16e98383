package types

import (
	"fmt"

	"github.com/google/uuid"
)

// SessionID identifies a conversation. Callers may supply their own; NewSessionID mints one.
type SessionID string

// NewSessionID generates a new UUID v4 SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// IsEmpty reports whether no session ID was supplied
func (id SessionID) IsEmpty() bool {
	return id == ""
}

// Validate checks that the session ID is usable as a storage key
func (id SessionID) Validate() error {
	if id == "" {
		return fmt.Errorf("session ID is empty")
	}
	if len(id) > 256 {
		return fmt.Errorf("session ID is too long: %d", len(id))
	}
	for _, r := range id {
		if r == '/' || r < 0x20 {
			return fmt.Errorf("session ID contains invalid character: %q", r)
		}
	}
	return nil
}

// String returns the string representation of the session ID
func (id SessionID) String() string {
	return string(id)
}
