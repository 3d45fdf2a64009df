// Package httpserver exposes scoreboard runs over HTTP.
package httpserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/programme-lv/autoprogcomp/runner"
	"github.com/programme-lv/autoprogcomp/sheet"
)

// Runs is the part of runner.Runner the server drives.
type Runs interface {
	TryRun(ctx context.Context) (runner.Result, error)
	Last() (runner.Result, bool)
}

type Options struct {
	AllowedOrigins []string
	// Token, when set, must be sent as a bearer token on POST requests.
	Token   string
	Version string
	Env     string
}

type HttpServer struct {
	runs    Runs
	compute sheet.ComputeFunc
	token   string
	router  *chi.Mux
}

func NewHttpServer(runs Runs, compute sheet.ComputeFunc, opts Options) *HttpServer {
	router := chi.NewRouter()

	logger := httplog.NewLogger("autoprogcomp", httplog.Options{
		LogLevel:         slog.LevelDebug,
		Concise:          true,
		RequestHeaders:   false,
		MessageFieldName: "message",
		Tags: map[string]string{
			"version": opts.Version,
			"env":     opts.Env,
		},
	})

	router.Use(httplog.RequestLogger(logger))

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         3000,
	}))

	server := &HttpServer{
		runs:    runs,
		compute: compute,
		token:   opts.Token,
		router:  router,
	}

	server.routes()

	return server
}

func (httpserver *HttpServer) Handler() http.Handler {
	return httpserver.router
}

// Start serves on address until ctx is cancelled, then shuts down gracefully.
func (httpserver *HttpServer) Start(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           httpserver.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (httpserver *HttpServer) routes() {
	r := httpserver.router
	r.Get("/healthz", httpserver.healthz)
	r.Get("/runs/last", httpserver.getLastRun)
	r.Group(func(r chi.Router) {
		r.Use(bearerTokenMiddleware(httpserver.token))
		r.Post("/runs", httpserver.createRun)
		r.Post("/compute", httpserver.computeGrid)
	})
}

func bearerTokenMiddleware(token string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				handleJsonSrvcError(httplog.LogEntry(r.Context()), w, errUnauthorized())
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
