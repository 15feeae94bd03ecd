package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/coordsim/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Database string
	Bind     string
	Port     int
}

// ErrorResponse is the body of a failed HTTP request.
type ErrorResponse struct {
	ErrorType    string `json:"errorType"`
	ErrorMessage string `json:"errorMessage"`
}

const shutdownTimeout = 5 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recorded runs over HTTP",
		Long: `Serve a read-only JSON view of the runs recorded in a database.

Routes:
  GET /runs                   all runs, oldest first
  GET /runs/{runID}           one run with its summary
  GET /runs/{runID}/events    the run's events in Seq order

Example:
  coordsim serve --db runs.db --port 8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Bind, "bind", "127.0.0.1", "address to listen on")
	cmd.Flags().IntVar(&opts.Port, "port", 8080, "port to listen on")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(opts.Bind, strconv.Itoa(opts.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(st),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("serving runs", "addr", addr, "db", opts.Database)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitCommandError, "server error", err)
	}
	return nil
}

// NewRouter returns the read-only HTTP view of st.
func NewRouter(st *store.Store) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(accessLog)

	router.Get("/runs", listRunsHandler(st))
	router.Get("/runs/{runID}", runHandler(st))
	router.Get("/runs/{runID}/events", eventsHandler(st))

	return router
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start))
	})
}

func listRunsHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := st.ListRuns(r.Context())
		if err != nil {
			renderError(w, r, err)
			return
		}
		render.JSON(w, r, runs)
	}
}

func runHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := loadTrace(r.Context(), st, chi.URLParam(r, "runID"))
		if err != nil {
			renderError(w, r, err)
			return
		}
		result.Events = nil
		render.JSON(w, r, result)
	}
}

func eventsHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "runID")
		if _, err := st.ReadRun(r.Context(), runID); err != nil {
			renderError(w, r, err)
			return
		}
		events, err := st.ReadEvents(r.Context(), runID)
		if err != nil {
			renderError(w, r, err)
			return
		}
		render.JSON(w, r, events)
	}
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, &ErrorResponse{ErrorType: "Run.NotFound", ErrorMessage: err.Error()})
		return
	}
	slog.Error("request failed", "path", r.URL.Path, "error", err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, &ErrorResponse{ErrorType: "Store.Error", ErrorMessage: err.Error()})
}
