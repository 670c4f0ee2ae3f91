// Package server provides the backend-for-frontend proxy: a few API routes
// forwarded verbatim to the knowledge backend, plus the static UI bundle.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/raphaelgruber/cognee-viewer/internal/metrics"
)

// statusErrorFormat is the message for non-2xx backend responses; it matches
// the message of client.NetworkError.
const statusErrorFormat = "Request failed with status code %d"

// maxBodyLogLen is the maximum length for logged request bodies before truncation.
const maxBodyLogLen = 200

// Options configures a Server.
type Options struct {
	// BackendURL is the base URL of the knowledge backend, e.g. http://localhost:8000.
	BackendURL string
	// Static is the built UI bundle. It must contain index.html.
	Static fs.FS
	// HTTPClient is used for backend calls. Defaults to a client with no timeout,
	// since graph-completion searches can take minutes.
	HTTPClient *http.Client
}

// Server forwards API calls to the backend and serves the UI.
type Server struct {
	backendURL string
	httpClient *http.Client
	static     fs.FS
	logger     *slog.Logger
	metrics    *metrics.Collector
}

// New creates a proxy server. A nil collector is replaced with a fresh one.
func New(opts Options, logger *slog.Logger, collector *metrics.Collector) *Server {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Server{
		backendURL: strings.TrimRight(opts.BackendURL, "/"),
		httpClient: hc,
		static:     opts.Static,
		logger:     logger,
		metrics:    collector,
	}
}

// Handler returns the full routing tree wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/search", s.forward(metrics.OpSearch))
	mux.HandleFunc("GET /api/v1/datasets", s.forward(metrics.OpDatasets))
	mux.HandleFunc("GET /api/v1/datasets/{dataset}/data", s.forward(metrics.OpDataItems))
	mux.HandleFunc("GET /api/v1/datasets/{dataset}/data/{item}/raw", s.forward(metrics.OpRawData))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.metrics.Snapshot())
	})

	if s.static != nil {
		mux.Handle("/", SPAHandler(s.static, s.logger))
	}

	return LoggingMiddleware(s.logger)(mux)
}

// forward relays the request to the same path on the backend.
// Backend failures of any kind become HTTP 500 with {"error": message}.
func (s *Server) forward(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		resp, err := s.callBackend(r)
		s.metrics.RecordTiming(op, time.Since(start), err != nil)
		if err != nil {
			s.logger.Warn("backend call failed",
				"op", op,
				"path", r.URL.Path,
				"request_id", RequestID(r.Context()),
				"error", err,
			)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		contentType := resp.contentType
		if contentType == "" {
			contentType = "application/json"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(resp.status)
		_, _ = w.Write(resp.body)
	}
}

type backendResponse struct {
	status      int
	contentType string
	body        []byte
}

func (s *Server) callBackend(r *http.Request) (*backendResponse, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if len(body) > 0 {
		s.logger.Debug("forwarding request", "path", r.URL.Path, "body", truncate(string(body), maxBodyLogLen))
	}

	target := s.backendURL + r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	req.Header.Set("Accept", "application/json")
	if id := RequestID(r.Context()); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf(statusErrorFormat, resp.StatusCode)
	}

	return &backendResponse{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs an HTTP server for handler on addr until ctx is cancelled,
// then shuts it down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // Long for graph-completion searches
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
