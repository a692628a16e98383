package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/domain/types"
	"github.com/secmon-lab/ariadne/pkg/utils/logging"
)

//go:embed prompt/condense.md
var condensePromptTmpl string

var condensePrompt = template.Must(template.New("condense").Parse(condensePromptTmpl))

//go:embed prompt/answer.md
var answerPromptTmpl string

var answerPrompt = template.Must(template.New("answer").Parse(answerPromptTmpl))

// AnswerInput is one conversational question. SessionID may be empty to start a new conversation.
type AnswerInput struct {
	SessionID types.SessionID
	Query     string
	Retriever interfaces.SimilarityIndex
}

type AnswerOutput struct {
	SessionID types.SessionID
	Answer    string
	// Question is the standalone question used for retrieval and generation
	Question  string
	Documents []*model.Document
}

// AnswerUseCase is the retrieval-augmented answering engine
type AnswerUseCase struct {
	conversation interfaces.ConversationRepository
	llmClient    gollem.LLMClient
	topK         int
	timeouts     Timeouts
}

func NewAnswerUseCase(conversation interfaces.ConversationRepository, llmClient gollem.LLMClient, topK int, timeouts Timeouts) *AnswerUseCase {
	return &AnswerUseCase{
		conversation: conversation,
		llmClient:    llmClient,
		topK:         topK,
		timeouts:     timeouts,
	}
}

// Answer condenses the query against the session history, retrieves evidence, generates
// an answer and appends the question and answer to the session.
func (uc *AnswerUseCase) Answer(ctx context.Context, input AnswerInput) (*AnswerOutput, error) {
	return uc.answer(ctx, input, nil)
}

// answer runs the engine. beforeCommit, if set, sees the retrieved documents after generation
// and before memory is written; an error from it fails the request with nothing stored.
func (uc *AnswerUseCase) answer(ctx context.Context, input AnswerInput, beforeCommit func(docs []*model.Document) error) (*AnswerOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, goerr.Wrap(ErrEmptyQuery, "query is required")
	}
	if input.Retriever == nil {
		return nil, goerr.New("retriever is not configured")
	}

	sessionID := input.SessionID
	if sessionID.IsEmpty() {
		sessionID = types.NewSessionID()
	}
	if err := sessionID.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidSessionID, err.Error(), goerr.V(SessionIDKey, sessionID))
	}

	logger := logging.From(ctx).With("session_id", sessionID.String())
	ctx = logging.With(ctx, logger)

	history, err := callWithTimeout(ctx, uc.timeouts.Store, ErrSessionStoreUnavailable,
		func(ctx context.Context) ([]*model.Turn, error) {
			return uc.conversation.Load(ctx, sessionID)
		})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load conversation", goerr.V(SessionIDKey, sessionID))
	}

	question := input.Query
	if len(history) > 0 {
		question, err = uc.condense(ctx, history, input.Query)
		if err != nil {
			return nil, err
		}
	}

	docs, err := callWithTimeout(ctx, uc.timeouts.Retrieval, ErrRetrievalFailed,
		func(ctx context.Context) ([]*model.Document, error) {
			return input.Retriever.Search(ctx, question, uc.topK)
		})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to retrieve documents", goerr.V(QueryKey, question))
	}

	answer, err := uc.generate(ctx, answerPrompt, map[string]any{
		"Documents": docs,
		"Question":  question,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate answer")
	}

	if beforeCommit != nil {
		if err := beforeCommit(docs); err != nil {
			return nil, err
		}
	}

	if err := uc.appendTurns(ctx, sessionID, input.Query, answer); err != nil {
		return nil, err
	}

	logger.Info("question answered",
		"history", len(history),
		"documents", len(docs),
		"condensed", question != input.Query)

	return &AnswerOutput{
		SessionID: sessionID,
		Answer:    answer,
		Question:  question,
		Documents: docs,
	}, nil
}

func (uc *AnswerUseCase) condense(ctx context.Context, history []*model.Turn, query string) (string, error) {
	standalone, err := uc.generate(ctx, condensePrompt, map[string]any{
		"History":  history,
		"Question": query,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to condense question")
	}
	return strings.TrimSpace(standalone), nil
}

func (uc *AnswerUseCase) generate(ctx context.Context, tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render prompt", goerr.V("template", tmpl.Name()))
	}

	return callWithTimeout(ctx, uc.timeouts.Generation, ErrGenerationFailed,
		func(ctx context.Context) (string, error) {
			session, err := uc.llmClient.NewSession(ctx)
			if err != nil {
				return "", goerr.Wrap(err, "failed to create LLM session")
			}

			resp, err := session.GenerateContent(ctx, gollem.Text(buf.String()))
			if err != nil {
				return "", goerr.Wrap(err, "failed to generate content")
			}

			text := strings.TrimSpace(strings.Join(resp.Texts, ""))
			if text == "" {
				return "", goerr.New("empty response from LLM", goerr.V("template", tmpl.Name()))
			}
			return text, nil
		})
}

// appendTurns stores the human and assistant turns. They are written one by one, so a
// failure between the two leaves the question without its answer.
func (uc *AnswerUseCase) appendTurns(ctx context.Context, sessionID types.SessionID, query, answer string) error {
	turns := []struct {
		role types.Role
		text string
	}{
		{types.RoleHuman, query},
		{types.RoleAssistant, answer},
	}

	for _, turn := range turns {
		_, err := callWithTimeout(ctx, uc.timeouts.Store, ErrSessionStoreUnavailable,
			func(ctx context.Context) (*model.Turn, error) {
				return uc.conversation.Append(ctx, sessionID, turn.role, turn.text)
			})
		if err != nil {
			return goerr.Wrap(err, "failed to append turn",
				goerr.V(SessionIDKey, sessionID),
				goerr.V("role", turn.role))
		}
	}
	return nil
}
