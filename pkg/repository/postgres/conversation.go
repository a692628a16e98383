package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/domain/types"
)

// storedMessage is the LangChain message_to_dict layout of a message_store row
type storedMessage struct {
	Type string `json:"type"`
	Data struct {
		Content string `json:"content"`
		Type    string `json:"type"`
	} `json:"data"`
}

// LangChain calls the assistant role "ai"
func messageType(role types.Role) string {
	if role == types.RoleAssistant {
		return "ai"
	}
	return string(role)
}

func roleOf(messageType string) types.Role {
	if messageType == "ai" {
		return types.RoleAssistant
	}
	return types.Role(messageType)
}

type conversationRepository struct {
	pool *pgxpool.Pool
}

func (r *conversationRepository) Append(ctx context.Context, sessionID types.SessionID, role types.Role, text string) (*model.Turn, error) {
	if err := sessionID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid session ID")
	}
	if !role.IsValid() {
		return nil, goerr.New("invalid role", goerr.V("role", role))
	}

	var msg storedMessage
	msg.Type = messageType(role)
	msg.Data.Type = msg.Type
	msg.Data.Content = text

	turn := &model.Turn{
		SessionID: sessionID,
		Role:      role,
		Text:      text,
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO message_store (session_id, message) VALUES ($1, $2) RETURNING id, created_at`,
		sessionID.String(), msg,
	).Scan(&turn.Seq, &turn.CreatedAt)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to append turn", goerr.V("sessionID", sessionID))
	}
	turn.CreatedAt = turn.CreatedAt.UTC()

	return turn, nil
}

func (r *conversationRepository) Load(ctx context.Context, sessionID types.SessionID) ([]*model.Turn, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, message, created_at FROM message_store WHERE session_id = $1 ORDER BY id`,
		sessionID.String(),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query turns", goerr.V("sessionID", sessionID))
	}
	defer rows.Close()

	turns := make([]*model.Turn, 0)
	for rows.Next() {
		var (
			seq       int64
			msg       storedMessage
			createdAt time.Time
		)
		if err := rows.Scan(&seq, &msg, &createdAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan turn", goerr.V("sessionID", sessionID))
		}
		turns = append(turns, &model.Turn{
			SessionID: sessionID,
			Seq:       seq,
			Role:      roleOf(msg.Type),
			Text:      msg.Data.Content,
			CreatedAt: createdAt.UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "error iterating turns", goerr.V("sessionID", sessionID))
	}

	return turns, nil
}
