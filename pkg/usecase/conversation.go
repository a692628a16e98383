package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/domain/types"
)

// ConversationUseCase exposes stored session history
type ConversationUseCase struct {
	conversation interfaces.ConversationRepository
	timeout      time.Duration
}

// storeTimeout falls back to DefaultStoreTimeout for unset values
func storeTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultStoreTimeout
	}
	return d
}

func NewConversationUseCase(conversation interfaces.ConversationRepository, timeout time.Duration) *ConversationUseCase {
	return &ConversationUseCase{
		conversation: conversation,
		timeout:      storeTimeout(timeout),
	}
}

// History returns the turns of a session in append order
func (uc *ConversationUseCase) History(ctx context.Context, sessionID types.SessionID) ([]*model.Turn, error) {
	if err := sessionID.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidSessionID, err.Error(), goerr.V(SessionIDKey, sessionID))
	}

	turns, err := callWithTimeout(ctx, uc.timeout, ErrSessionStoreUnavailable,
		func(ctx context.Context) ([]*model.Turn, error) {
			return uc.conversation.Load(ctx, sessionID)
		})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load conversation", goerr.V(SessionIDKey, sessionID))
	}
	return turns, nil
}
