package classifier

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/utils/logging"
)

var (
	// ErrEmptyQuery is returned for a blank query
	ErrEmptyQuery = errors.New("query is empty")
	// ErrClassificationRefused is returned when the model picks no retrieval strategy
	ErrClassificationRefused = errors.New("classification refused")
)

const systemPrompt = `You route questions from people looking for health and social service information.
Always answer by calling exactly one of the provided functions.
Call search_location_questions when the user is looking for a place, provider or service in a specific area.
Call search_direct_questions for every other question.
Pass the user's question as the query argument.`

// Classifier maps a query to a retrieval intent by letting the model select a routing tool
type Classifier struct {
	llmClient gollem.LLMClient
	timeout   time.Duration
}

type Option func(*Classifier)

// WithTimeout bounds each model call
func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		c.timeout = d
	}
}

func New(llmClient gollem.LLMClient, opts ...Option) (*Classifier, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &Classifier{
		llmClient: llmClient,
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Classify returns GeneralIntent or LocationIntent. When the model does not call a known
// routing tool, it returns a RefusedIntent together with ErrClassificationRefused.
func (c *Classifier) Classify(ctx context.Context, query string) (model.Intent, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(systemPrompt),
		gollem.WithSessionTools(routeTools()...),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(query))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to classify query")
	}

	intent := decode(query, resp)
	logging.From(ctx).Debug("query classified", "intent", intent.Name())

	if refused, ok := intent.(model.RefusedIntent); ok {
		return refused, goerr.Wrap(ErrClassificationRefused, "model did not select a retrieval strategy",
			goerr.V("reason", refused.Reason))
	}
	return intent, nil
}

func decode(query string, resp *gollem.Response) model.Intent {
	rationale := strings.Join(resp.Texts, "\n")

	if len(resp.FunctionCalls) == 0 {
		return model.RefusedIntent{Reason: rationale}
	}

	call := resp.FunctionCalls[0]
	q, _ := call.Arguments["query"].(string)
	if strings.TrimSpace(q) == "" {
		q = query
	}

	switch call.Name {
	case ToolSearchDirectQuestions:
		return model.GeneralIntent{Query: q, Rationale: rationale}
	case ToolSearchLocationQuestions:
		return model.LocationIntent{Query: q, Rationale: rationale}
	default:
		return model.RefusedIntent{Reason: "unknown tool: " + call.Name}
	}
}
