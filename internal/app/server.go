package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/pinpatch/internal/ctxlog"
	"github.com/specialistvlad/pinpatch/internal/dispatch"
)

// RequestIDHeader carries the id assigned to every API request.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes caps API request bodies.
const maxBodyBytes = 8 << 20

// Handler returns the serve-mode HTTP API.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.healthHandler)
	mux.Handle("GET /metrics", a.metrics.Handler())

	mux.HandleFunc("POST /v1/canonicalize", a.withRequest(func(ctx context.Context, body []byte) (any, error) {
		var req CanonicalizeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, badRequest(err)
		}
		res, err := a.Canonicalize(ctx, req)
		if err != nil && !isDispatchErr(err) {
			return nil, badRequest(err)
		}
		return res, err
	}))
	mux.HandleFunc("POST /v1/apply", a.withRequest(func(ctx context.Context, body []byte) (any, error) {
		return a.Apply(ctx, body)
	}))
	mux.HandleFunc("POST /v1/nodes/delete", a.withRequest(func(ctx context.Context, body []byte) (any, error) {
		var req DeleteNodeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, badRequest(err)
		}
		return a.DeleteNode(ctx, req)
	}))
	mux.HandleFunc("POST /v1/links/delete", a.withRequest(func(ctx context.Context, body []byte) (any, error) {
		var req DeleteLinkRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, badRequest(err)
		}
		return a.DeleteLink(ctx, req)
	}))
	mux.HandleFunc("POST /v1/nodes/replace", a.withRequest(func(ctx context.Context, body []byte) (any, error) {
		var req ReplaceNodeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, badRequest(err)
		}
		return a.ReplaceNode(ctx, req)
	}))
	return mux
}

type apiFunc func(ctx context.Context, body []byte) (any, error)

type requestError struct{ err error }

func (e requestError) Error() string { return e.err.Error() }
func (e requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return requestError{err} }

func isDispatchErr(err error) bool {
	return errors.Is(err, dispatch.ErrTimeout) || errors.Is(err, dispatch.ErrClosed) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// withRequest reads the body, tags the request with an id and a logger, and
// encodes the outcome. Reports are returned with 200 whatever their success
// flag; only transport and dispatch failures change the status.
func (a *App) withRequest(fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := ctxlog.With(ctxlog.WithLogger(r.Context(), a.logger), "request_id", id, "path", r.URL.Path)
		logger := ctxlog.FromContext(ctx)

		start := time.Now()
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err))
			return
		}

		out, err := fn(ctx, body)
		var reqErr requestError
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, out)
		case errors.As(err, &reqErr):
			logger.Debug("Rejected request.", "error", err)
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, dispatch.ErrTimeout):
			logger.Warn("Request timed out in dispatch.", "error", err)
			writeError(w, http.StatusGatewayTimeout, err)
		case errors.Is(err, dispatch.ErrClosed):
			writeError(w, http.StatusServiceUnavailable, err)
		default:
			logger.Error("Request failed.", "error", err)
			writeError(w, http.StatusInternalServerError, err)
		}
		logger.Debug("Request handled.", "took", time.Since(start))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Serve runs the API on Config.Listen, and the standalone health check
// server when a port is configured, until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
	}

	srv := &http.Server{
		Addr:              a.config.Listen,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("🚀 pinpatch API listening", "address", a.config.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.logger.Info("🏁 Shutting down API server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown failed: %w", err)
	}
	return nil
}
