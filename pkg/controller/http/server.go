package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/domain/types"
	"github.com/secmon-lab/ariadne/pkg/usecase"
	"github.com/secmon-lab/ariadne/pkg/utils/logging"
	"github.com/secmon-lab/ariadne/pkg/utils/safe"
)

// QueryUseCase answers questions
type QueryUseCase interface {
	Search(ctx context.Context, input usecase.RouteInput) (*usecase.RouteOutput, error)
	Route(ctx context.Context, input usecase.RouteInput) (*usecase.RouteOutput, error)
}

// ConversationUseCase reads session history
type ConversationUseCase interface {
	History(ctx context.Context, sessionID types.SessionID) ([]*model.Turn, error)
}

// IngestUseCase loads location sources
type IngestUseCase interface {
	IngestLocations(ctx context.Context, r io.Reader) (*model.IngestReport, error)
}

type Server struct {
	router        *chi.Mux
	query         QueryUseCase
	conversation  ConversationUseCase
	ingest        IngestUseCase
	maxIngestSize int64
}

type Options func(*Server)

func WithQuery(uc QueryUseCase) Options {
	return func(s *Server) {
		s.query = uc
	}
}

func WithConversation(uc ConversationUseCase) Options {
	return func(s *Server) {
		s.conversation = uc
	}
}

// WithIngest enables the location upload endpoint
func WithIngest(uc IngestUseCase) Options {
	return func(s *Server) {
		s.ingest = uc
	}
}

// WithMaxIngestSize limits the accepted CSV upload size in bytes
func WithMaxIngestSize(n int64) Options {
	return func(s *Server) {
		s.maxIngestSize = n
	}
}

func New(opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:        r,
		maxIngestSize: 32 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		safe.Write(r.Context(), w, []byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		if s.query != nil {
			r.Post("/search", searchHandler(s.query))
			r.Post("/route", routeHandler(s.query))
		}
		if s.conversation != nil {
			r.Get("/sessions/{id}/turns", turnsHandler(s.conversation))
		}
		if s.ingest != nil {
			r.Post("/ingest/locations", ingestLocationsHandler(s.ingest, s.maxIngestSize))
		}
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.From(r.Context()).With("request_id", middleware.GetReqID(r.Context()))
		r = r.WithContext(logging.With(r.Context(), logger))

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(ctx, w, data)
}
