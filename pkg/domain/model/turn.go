package model

import (
	"time"

	"github.com/secmon-lab/ariadne/pkg/domain/types"
)

// Turn is one message of a conversation. Seq is assigned by the store on append
// and strictly increases within a session.
type Turn struct {
	SessionID types.SessionID
	Seq       int64
	Role      types.Role
	Text      string
	CreatedAt time.Time
}
