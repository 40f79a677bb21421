package srv

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"nihongo.exe.dev/db"
)

// Server holds shared state for the HTTP/WebSocket server.
type Server struct {
	Lobby *Lobby
	Hub   *Hub
	Store db.Store // optional; result routes answer 404 without it

	r *chi.Mux
}

// New creates a Server and registers its routes.
func New(lobby *Lobby, hub *Hub, store db.Store) *Server {
	s := &Server{Lobby: lobby, Hub: hub, Store: store, r: chi.NewRouter()}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer)

	s.r.Get("/health", s.HandleHealth)
	s.r.Get("/ws", s.HandleWS)

	s.r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)
		r.Get("/games", s.HandleListGames)
		r.Get("/games/{channel}", s.HandleGameInfo)
		r.Get("/leaderboard/{game}", s.HandleLeaderboard)
		r.Get("/players/{id}/stats", s.HandlePlayerStats)
		r.Get("/results", s.HandleRecentResults)
		r.Get("/results/{id}", s.HandleResult)
	})

	s.r.Get("/results/{id}", s.HandleViewResultPage)
	s.r.Get("/results/{id}/ogp.svg", s.HandleOGPImage)

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	return s
}

// Router exposes the routes, mainly for tests.
func (s *Server) Router() http.Handler { return s.r }

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting server")
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request through zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
