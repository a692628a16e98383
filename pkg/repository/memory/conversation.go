package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/domain/types"
)

type conversationRepository struct {
	mu       sync.RWMutex
	sessions map[types.SessionID][]*model.Turn
}

func newConversationRepository() *conversationRepository {
	return &conversationRepository{
		sessions: make(map[types.SessionID][]*model.Turn),
	}
}

func copyTurn(t *model.Turn) *model.Turn {
	c := *t
	return &c
}

func (r *conversationRepository) Append(ctx context.Context, sessionID types.SessionID, role types.Role, text string) (*model.Turn, error) {
	if err := sessionID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid session ID")
	}
	if !role.IsValid() {
		return nil, goerr.New("invalid role", goerr.V("role", role))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	turns := r.sessions[sessionID]
	turn := &model.Turn{
		SessionID: sessionID,
		Seq:       int64(len(turns)) + 1,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	r.sessions[sessionID] = append(turns, turn)

	return copyTurn(turn), nil
}

func (r *conversationRepository) Load(ctx context.Context, sessionID types.SessionID) ([]*model.Turn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	turns := r.sessions[sessionID]
	result := make([]*model.Turn, len(turns))
	for i, t := range turns {
		result[i] = copyTurn(t)
	}
	return result, nil
}
