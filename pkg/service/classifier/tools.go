package classifier

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

const (
	ToolSearchDirectQuestions   = "search_direct_questions"
	ToolSearchLocationQuestions = "search_location_questions"
)

// routeTool is a tool the model selects to express an intent. It is never executed;
// the function call is decoded by Classify instead.
type routeTool struct {
	name        string
	description string
}

func (t *routeTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        t.name,
		Description: t.description,
		Parameters: map[string]*gollem.Parameter{
			"id": {
				Type:        gollem.TypeString,
				Description: "The conversation id. For new conversations, this will be null, however for existing conversations, this will be passed in by the user to continue that conversation",
				Required:    true,
			},
			"query": {
				Type:        gollem.TypeString,
				Description: "The question the user is trying to find an answer for",
				Required:    true,
			},
		},
	}
}

func (t *routeTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	return nil, goerr.New("route tools are not executable", goerr.V("tool", t.name))
}

func routeTools() []gollem.Tool {
	return []gollem.Tool{
		&routeTool{
			name:        ToolSearchDirectQuestions,
			description: "Retrieve a direct answer from the knowledge base based on a user question. Call this whenever you get a direct question that should be answered without a specific location. For example when a user asks 'newborn nutritional advice' or 'birth control alternatives'",
		},
		&routeTool{
			name:        ToolSearchLocationQuestions,
			description: "Retrieve a location from the locations table based on a user question. Call this whenever you get a question that should be answered with a specific location. For example when a user asks 'mental health support in Bryan, Texas' or 'Where can i get a root canal in Corpus Christi'",
		},
	}
}
