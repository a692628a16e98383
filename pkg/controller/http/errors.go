package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/secmon-lab/ariadne/pkg/service/classifier"
	"github.com/secmon-lab/ariadne/pkg/service/embedding"
	"github.com/secmon-lab/ariadne/pkg/usecase"
	"github.com/secmon-lab/ariadne/pkg/utils/errutil"
)

var errorMapping = []struct {
	target  error
	status  int
	message string
}{
	{classifier.ErrClassificationRefused, http.StatusUnprocessableEntity, "could not classify query, try rephrasing"},
	{usecase.ErrEmptyQuery, http.StatusBadRequest, "query is required"},
	{usecase.ErrInvalidSessionID, http.StatusBadRequest, "invalid session ID"},
	{usecase.ErrTimeout, http.StatusGatewayTimeout, "upstream call timed out"},
	{usecase.ErrSessionStoreUnavailable, http.StatusServiceUnavailable, "conversation store is unavailable"},
	{embedding.ErrEmbeddingUnavailable, http.StatusBadGateway, "embedding provider is unavailable"},
	{usecase.ErrGenerationFailed, http.StatusBadGateway, "language model failed to answer"},
}

// statusOf maps a use case error to its HTTP status and public message. The first match wins.
func statusOf(err error) (int, string) {
	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, ""
}

func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	status, msg := statusOf(err)
	errutil.HandleJSON(ctx, w, err, status, msg)
}
