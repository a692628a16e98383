package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/domain/types"
	"github.com/secmon-lab/ariadne/pkg/service/classifier"
	"github.com/secmon-lab/ariadne/pkg/service/location"
	"github.com/secmon-lab/ariadne/pkg/utils/logging"
)

type RouteInput struct {
	SessionID types.SessionID
	Query     string
}

// RouteOutput is the answer to a routed query. Locations is set only for a location intent.
type RouteOutput struct {
	SessionID types.SessionID
	Intent    model.Intent
	Response  string
	Locations []*model.LocationResult
}

// RouteUseCase dispatches a query to the knowledge-base or location index
type RouteUseCase struct {
	answer     *AnswerUseCase
	classifier interfaces.Classifier
	general    interfaces.SimilarityIndex
	location   interfaces.SimilarityIndex
}

func NewRouteUseCase(answer *AnswerUseCase, classifier interfaces.Classifier, general, location interfaces.SimilarityIndex) *RouteUseCase {
	return &RouteUseCase{
		answer:     answer,
		classifier: classifier,
		general:    general,
		location:   location,
	}
}

// locationColumns is the column set the location index encodes its documents with
func (uc *RouteUseCase) locationColumns() []string {
	if idx, ok := uc.location.(interfaces.RecordIndex); ok {
		return idx.Columns()
	}
	return model.LocationColumns
}

// Search answers from the knowledge-base index without classification
func (uc *RouteUseCase) Search(ctx context.Context, input RouteInput) (*RouteOutput, error) {
	out, err := uc.answer.Answer(ctx, AnswerInput{
		SessionID: input.SessionID,
		Query:     input.Query,
		Retriever: uc.general,
	})
	if err != nil {
		return nil, err
	}

	return &RouteOutput{
		SessionID: out.SessionID,
		Intent:    model.GeneralIntent{Query: input.Query},
		Response:  out.Answer,
	}, nil
}

// Route classifies the query and answers through the matching index. A refused
// classification is returned as an error wrapping classifier.ErrClassificationRefused.
func (uc *RouteUseCase) Route(ctx context.Context, input RouteInput) (*RouteOutput, error) {
	if uc.classifier == nil {
		return nil, goerr.New("classifier is not configured")
	}

	intent, err := uc.classifier.Classify(ctx, input.Query)
	if err != nil {
		switch {
		case errors.Is(err, classifier.ErrClassificationRefused):
			return nil, err
		case errors.Is(err, classifier.ErrEmptyQuery):
			return nil, errors.Join(ErrEmptyQuery, err)
		case errors.Is(err, context.DeadlineExceeded):
			return nil, goerr.Wrap(errors.Join(ErrTimeout, ErrGenerationFailed, err), "failed to classify query")
		default:
			return nil, goerr.Wrap(errors.Join(ErrGenerationFailed, err), "failed to classify query")
		}
	}

	logging.From(ctx).Info("query routed", "intent", intent.Name())

	switch v := intent.(type) {
	case model.GeneralIntent:
		out, err := uc.answer.Answer(ctx, AnswerInput{
			SessionID: input.SessionID,
			Query:     v.Query,
			Retriever: uc.general,
		})
		if err != nil {
			return nil, err
		}
		return &RouteOutput{SessionID: out.SessionID, Intent: v, Response: out.Answer}, nil

	case model.LocationIntent:
		var locations []*model.LocationResult
		out, err := uc.answer.answer(ctx, AnswerInput{
			SessionID: input.SessionID,
			Query:     v.Query,
			Retriever: uc.location,
		}, func(docs []*model.Document) error {
			formatted, err := location.Format(docs, uc.locationColumns())
			if err != nil {
				return goerr.Wrap(err, "failed to format locations")
			}
			locations = formatted
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &RouteOutput{SessionID: out.SessionID, Intent: v, Response: out.Answer, Locations: locations}, nil

	default:
		return nil, goerr.Wrap(classifier.ErrClassificationRefused, "unexpected intent", goerr.V("intent", intent.Name()))
	}
}
