package memory

import (
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
)

// ErrNotFound is returned (wrapped) when a lookup has no result
var ErrNotFound = interfaces.ErrNotFound

type Memory struct {
	conversation *conversationRepository
	location     *locationRepository
	document     *documentRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		conversation: newConversationRepository(),
		location:     newLocationRepository(),
		document:     newDocumentRepository(),
	}
}

func (m *Memory) Conversation() interfaces.ConversationRepository {
	return m.conversation
}

func (m *Memory) Location() interfaces.LocationRepository {
	return m.location
}

func (m *Memory) Document() interfaces.DocumentRepository {
	return m.document
}

func (m *Memory) Close() error {
	return nil
}
