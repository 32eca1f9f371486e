package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/defeedco/doomscroll/pkg/gallery"
	"github.com/rs/zerolog"
	httpswagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.yaml
var openapiSpecYaml string

type Server struct {
	sessions *SessionStore
	fallback *gallery.StaticFallback
	config   *Config
	logger   *zerolog.Logger
	http     http.Server
}

type ImagesResponse struct {
	Images    []string `json:"images"`
	Tier      string   `json:"tier,omitempty"`
	Fallback  bool     `json:"fallback"`
	Page      int      `json:"page"`
	Exhausted bool     `json:"exhausted"`
}

type SessionResponse struct {
	ID string `json:"id"`
}

func NewServer(
	logger *zerolog.Logger,
	config *Config,
	sessions *SessionStore,
	fallback *gallery.StaticFallback,
) *Server {
	mux := http.NewServeMux()

	server := &Server{
		sessions: sessions,
		fallback: fallback,
		config:   config,
		logger:   logger,
		http: http.Server{
			Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
			Handler: corsMiddleware(mux, config.CORSOrigin),
		},
	}

	mux.HandleFunc("POST /api/sessions", server.CreateSession)
	mux.HandleFunc("GET /api/sessions/{id}/images", server.LoadSessionImages)
	mux.HandleFunc("DELETE /api/sessions/{id}", server.DeleteSession)
	mux.HandleFunc("GET /api/fallback", server.GetFallbackWindow)
	mux.HandleFunc("GET /healthz", server.Health)
	server.registerApiDocsHandlers(mux)

	return server
}

func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func corsMiddleware(next http.Handler, originConfig string) http.Handler {
	origins := strings.Split(originConfig, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestOrigin := r.Header.Get("Origin")

		if len(origins) == 1 && origins[0] == "*" {
			// Allow all origins
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if requestOrigin != "" && slices.Contains(origins, requestOrigin) {
			// CORS doesn't support multiple origins,
			// so we either set the origin in the header or not at all.
			w.Header().Set("Access-Control-Allow-Origin", requestOrigin)
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerApiDocsHandlers(mux *http.ServeMux) {
	mux.Handle("/docs/", httpswagger.Handler(
		httpswagger.URL("/docs/openapi.yaml"),
	))
	mux.HandleFunc("/docs/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")

		_, err := w.Write([]byte(openapiSpecYaml))
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			s.logger.Error().Err(err).Msg("response write error")
		}
	})
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go s.sessions.Run(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	s.logger.Info().Str("addr", s.http.Addr).Msg("Starting server")

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) CreateSession(w http.ResponseWriter, _ *http.Request) {
	session := s.sessions.Create()

	w.WriteHeader(http.StatusCreated)
	s.serializeRes(w, SessionResponse{ID: session.ID})
}

func (s *Server) LoadSessionImages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	session, ok := s.sessions.Get(id)
	if !ok {
		s.notFound(w, fmt.Sprintf("session %s not found", id))
		return
	}

	count, err := s.parseCount(r, session.paginator.PageSize())
	if err != nil {
		s.badRequest(w, err, "parse count")
		return
	}

	res := ImagesResponse{Images: []string{}}
	sink := gallery.SinkFunc(func(_ context.Context, images []gallery.ImageResult) error {
		for _, img := range images {
			res.Images = append(res.Images, img.String())
		}
		return nil
	})

	batch, err := session.paginator.LoadCount(r.Context(), count, sink)
	if errors.Is(err, gallery.ErrFetchInProgress) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		s.internalError(w, err, "load images")
		return
	}

	res.Tier = batch.Tier
	res.Fallback = batch.Fallback
	res.Page = batch.Page
	res.Exhausted = batch.Exhausted

	s.serializeRes(w, res)
}

func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetFallbackWindow(w http.ResponseWriter, r *http.Request) {
	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		var err error
		page, err = strconv.Atoi(raw)
		if err != nil || page < 0 {
			s.badRequest(w, fmt.Errorf("invalid page: %s", raw), "parse page")
			return
		}
	}

	count, err := s.parseCount(r, s.sessions.pageSize)
	if err != nil {
		s.badRequest(w, err, "parse count")
		return
	}

	window := s.fallback.Window(page, count)

	res := ImagesResponse{
		Images:    make([]string, len(window)),
		Fallback:  true,
		Page:      page,
		Exhausted: len(window) == 0,
	}
	for i, img := range window {
		res.Images[i] = img.String()
	}

	s.serializeRes(w, res)
}

func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

// parseCount reads the count query parameter. Without one, the page size is used,
// capped like an explicit count.
func (s *Server) parseCount(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("count")
	if raw == "" {
		return min(fallback, s.config.MaxCount), nil
	}

	count, err := strconv.Atoi(raw)
	if err != nil || count < 1 || count > s.config.MaxCount {
		return 0, fmt.Errorf("count must be an integer between 1 and %d, got %q", s.config.MaxCount, raw)
	}

	return count, nil
}

func (s *Server) serializeRes(w http.ResponseWriter, res any) {
	w.Header().Add("Content-Type", "application/json")

	if res == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	err := json.NewEncoder(w).Encode(res)
	if err != nil {
		s.internalError(w, err, "serialize response")
	}
}

func (s *Server) internalError(w http.ResponseWriter, err error, msg string) {
	s.logger.Err(err).Msg(msg)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) badRequest(w http.ResponseWriter, err error, msg string) {
	s.logger.Debug().Err(err).Msg(msg)
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) notFound(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusNotFound)
}
