package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Conversation() ConversationRepository
	Location() LocationRepository
	Document() DocumentRepository

	Close() error
}
