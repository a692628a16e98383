package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type turnDoc struct {
	SessionID string    `firestore:"SessionID"`
	Seq       int64     `firestore:"Seq"`
	Role      string    `firestore:"Role"`
	Text      string    `firestore:"Text"`
	CreatedAt time.Time `firestore:"CreatedAt"`
}

func fromTurnDoc(d *turnDoc) *model.Turn {
	return &model.Turn{
		SessionID: types.SessionID(d.SessionID),
		Seq:       d.Seq,
		Role:      types.Role(d.Role),
		Text:      d.Text,
		CreatedAt: d.CreatedAt,
	}
}

type conversationRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newConversationRepository(client *firestore.Client) *conversationRepository {
	return &conversationRepository{client: client}
}

// sessionDoc returns sessions/{sessionID}; it holds the turn counter.
func (r *conversationRepository) sessionDoc(sessionID types.SessionID) *firestore.DocumentRef {
	return r.client.Collection(r.collectionPrefix + "sessions").Doc(sessionID.String())
}

// turnsCollection returns sessions/{sessionID}/turns
func (r *conversationRepository) turnsCollection(sessionID types.SessionID) *firestore.CollectionRef {
	return r.sessionDoc(sessionID).Collection("turns")
}

func (r *conversationRepository) Append(ctx context.Context, sessionID types.SessionID, role types.Role, text string) (*model.Turn, error) {
	if err := sessionID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid session ID")
	}
	if !role.IsValid() {
		return nil, goerr.New("invalid role", goerr.V("role", role))
	}

	sessionRef := r.sessionDoc(sessionID)
	var turn *model.Turn

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var seq int64 = 1
		doc, err := tx.Get(sessionRef)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return goerr.Wrap(err, "failed to get session")
			}
		} else {
			current, err := doc.DataAt("LastSeq")
			if err != nil {
				return goerr.Wrap(err, "failed to get turn counter")
			}
			val, ok := current.(int64)
			if !ok {
				return goerr.New("turn counter is not of type int64", goerr.V("value", current))
			}
			seq = val + 1
		}

		turn = &model.Turn{
			SessionID: sessionID,
			Seq:       seq,
			Role:      role,
			Text:      text,
			CreatedAt: time.Now().UTC(),
		}

		if err := tx.Set(sessionRef, map[string]interface{}{
			"LastSeq":   seq,
			"UpdatedAt": turn.CreatedAt,
		}); err != nil {
			return err
		}

		turnRef := r.turnsCollection(sessionID).Doc(fmt.Sprintf("%012d", seq))
		return tx.Create(turnRef, &turnDoc{
			SessionID: sessionID.String(),
			Seq:       turn.Seq,
			Role:      turn.Role.String(),
			Text:      turn.Text,
			CreatedAt: turn.CreatedAt,
		})
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to append turn", goerr.V("sessionID", sessionID))
	}

	return turn, nil
}

func (r *conversationRepository) Load(ctx context.Context, sessionID types.SessionID) ([]*model.Turn, error) {
	if sessionID.IsEmpty() {
		return []*model.Turn{}, nil
	}

	iter := r.turnsCollection(sessionID).
		OrderBy("Seq", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	turns := make([]*model.Turn, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate turns", goerr.V("sessionID", sessionID))
		}

		var d turnDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal turn", goerr.V("sessionID", sessionID))
		}
		turns = append(turns, fromTurnDoc(&d))
	}

	return turns, nil
}
