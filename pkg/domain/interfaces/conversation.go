package interfaces

import (
	"context"

	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/domain/types"
)

// ConversationRepository is the conversation memory store. Each Append is atomic;
// Load returns turns in append order and an empty slice for an unknown session.
type ConversationRepository interface {
	Append(ctx context.Context, sessionID types.SessionID, role types.Role, text string) (*model.Turn, error)
	Load(ctx context.Context, sessionID types.SessionID) ([]*model.Turn, error)
}
