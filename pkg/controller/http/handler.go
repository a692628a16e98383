package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/domain/types"
	"github.com/secmon-lab/ariadne/pkg/usecase"
	"github.com/secmon-lab/ariadne/pkg/utils/async"
	"github.com/secmon-lab/ariadne/pkg/utils/errutil"
	"github.com/secmon-lab/ariadne/pkg/utils/logging"
)

type queryRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

type queryResponse struct {
	SessionID string                  `json:"session_id"`
	Intent    string                  `json:"intent,omitempty"`
	Response  string                  `json:"response"`
	Locations []*model.LocationResult `json:"locations,omitempty"`
}

type turnResponse struct {
	Seq       int64     `json:"seq"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func decodeQuery(r *http.Request) (usecase.RouteInput, error) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return usecase.RouteInput{}, goerr.Wrap(err, "invalid request body")
	}
	return usecase.RouteInput{
		SessionID: types.SessionID(req.SessionID),
		Query:     req.Query,
	}, nil
}

func searchHandler(uc QueryUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		input, err := decodeQuery(r)
		if err != nil {
			errutil.HandleJSON(ctx, w, err, http.StatusBadRequest, "invalid request body")
			return
		}

		out, err := uc.Search(ctx, input)
		if err != nil {
			handleError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, queryResponse{
			SessionID: out.SessionID.String(),
			Response:  out.Response,
		})
	}
}

func routeHandler(uc QueryUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		input, err := decodeQuery(r)
		if err != nil {
			errutil.HandleJSON(ctx, w, err, http.StatusBadRequest, "invalid request body")
			return
		}

		out, err := uc.Route(ctx, input)
		if err != nil {
			handleError(ctx, w, err)
			return
		}

		resp := queryResponse{
			SessionID: out.SessionID.String(),
			Intent:    out.Intent.Name(),
			Response:  out.Response,
		}
		if _, ok := out.Intent.(model.LocationIntent); ok {
			resp.Locations = out.Locations
			if resp.Locations == nil {
				resp.Locations = []*model.LocationResult{}
			}
		}
		writeJSON(ctx, w, http.StatusOK, resp)
	}
}

func turnsHandler(uc ConversationUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := types.SessionID(chi.URLParam(r, "id"))

		turns, err := uc.History(ctx, sessionID)
		if err != nil {
			handleError(ctx, w, err)
			return
		}

		resp := make([]turnResponse, len(turns))
		for i, t := range turns {
			resp[i] = turnResponse{
				Seq:       t.Seq,
				Role:      t.Role.String(),
				Text:      t.Text,
				CreatedAt: t.CreatedAt,
			}
		}
		writeJSON(ctx, w, http.StatusOK, map[string]any{
			"session_id": sessionID.String(),
			"turns":      resp,
		})
	}
}

// ingestLocationsHandler accepts a CSV body and ingests it in the background
func ingestLocationsHandler(uc IngestUseCase, maxSize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSize))
		if err != nil {
			errutil.HandleJSON(ctx, w, goerr.Wrap(err, "failed to read upload"), http.StatusRequestEntityTooLarge, "upload is too large or unreadable")
			return
		}
		if len(bytes.TrimSpace(data)) == 0 {
			errutil.HandleJSON(ctx, w, goerr.New("empty upload"), http.StatusBadRequest, "CSV body is required")
			return
		}

		async.Dispatch(ctx, func(ctx context.Context) error {
			report, err := uc.IngestLocations(ctx, bytes.NewReader(data))
			if err != nil {
				return goerr.Wrap(err, "location ingestion failed")
			}
			for _, f := range report.Failed() {
				logging.From(ctx).Warn("location row rejected", "row", f.Row, "key", f.Key, "error", f.Err.Error())
			}
			return nil
		})

		writeJSON(ctx, w, http.StatusAccepted, map[string]string{"status": "accepted"})
	}
}
