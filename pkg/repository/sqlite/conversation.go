package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/domain/types"
)

// storedMessage mirrors the LangChain message_store layout used by the postgres backend
type storedMessage struct {
	Type string `json:"type"`
	Data struct {
		Content string `json:"content"`
		Type    string `json:"type"`
	} `json:"data"`
}

type conversationRepository struct {
	db *sql.DB
}

func (r *conversationRepository) Append(ctx context.Context, sessionID types.SessionID, role types.Role, text string) (*model.Turn, error) {
	if err := sessionID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid session ID")
	}
	if !role.IsValid() {
		return nil, goerr.New("invalid role", goerr.V("role", role))
	}

	var msg storedMessage
	msg.Type = string(role)
	if role == types.RoleAssistant {
		msg.Type = "ai"
	}
	msg.Data.Type = msg.Type
	msg.Data.Content = text

	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal message")
	}

	now := time.Now().UTC()
	turn := &model.Turn{
		SessionID: sessionID,
		Role:      role,
		Text:      text,
		CreatedAt: now,
	}
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO message_store (session_id, message, created_at) VALUES (?, ?, ?) RETURNING id`,
		sessionID.String(), string(raw), now.UnixNano(),
	).Scan(&turn.Seq)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to append turn", goerr.V("sessionID", sessionID))
	}

	return turn, nil
}

func (r *conversationRepository) Load(ctx context.Context, sessionID types.SessionID) ([]*model.Turn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, message, created_at FROM message_store WHERE session_id = ? ORDER BY id`,
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
			raw       string
			createdAt int64
			msg       storedMessage
		)
		if err := rows.Scan(&seq, &raw, &createdAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan turn", goerr.V("sessionID", sessionID))
		}
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal message", goerr.V("sessionID", sessionID), goerr.V("seq", seq))
		}

		role := types.Role(msg.Type)
		if msg.Type == "ai" {
			role = types.RoleAssistant
		}
		turns = append(turns, &model.Turn{
			SessionID: sessionID,
			Seq:       seq,
			Role:      role,
			Text:      msg.Data.Content,
			CreatedAt: time.Unix(0, createdAt).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "error iterating turns", goerr.V("sessionID", sessionID))
	}

	return turns, nil
}
