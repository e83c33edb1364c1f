package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/protobuf/encoding/protojson"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"

	"clnrmgo/internal/readiness"
)

// HTTPIngest is the `OtlpHttp{endpoint}` readiness source named in
// spec.md §4.7: a standard OTLP/HTTP JSON receiver (POST /v1/traces)
// that the service under test sends its spans to, modeled on the
// teacher's internal/api.Server lifecycle (explicit Start/Shutdown,
// structured logging, signal-free — the cleanroom environment owns
// process-lifetime signal handling, not this listener).
type HTTPIngest struct {
	buffer
	httpServer *http.Server
	logger     *slog.Logger
	auth       *TokenAuth
}

// NewHTTPIngest prepares a listener for addr and returns it ready for
// Start; the address is bound when Start runs, not here. auth may be the
// zero-value *TokenAuth
// (disabled) when OTEL_TOKEN is unset.
func NewHTTPIngest(addr string, auth *TokenAuth, logger *slog.Logger) *HTTPIngest {
	if auth == nil {
		auth = &TokenAuth{}
	}

	ing := &HTTPIngest{logger: logger, auth: auth}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/traces", ing.handleExport)

	ing.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return ing
}

// Start begins serving in the background and returns once the listener
// has had a brief moment to bind or fail.
func (h *HTTPIngest) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		h.logger.Info("otlp http ingest listening", slog.String("addr", h.httpServer.Addr))

		if err := h.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("otlp http ingest: %w", err)

			return
		}

		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(50 * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown gracefully drains in-flight requests, the same pattern the
// teacher's Server.shutdown uses.
func (h *HTTPIngest) Shutdown(ctx context.Context) error {
	return h.httpServer.Shutdown(ctx)
}

func (h *HTTPIngest) handleExport(w http.ResponseWriter, r *http.Request) {
	if h.auth.Enabled() {
		token, ok := extractBearerToken(r)
		if !ok || !h.auth.Verify(token) {
			http.Error(w, ErrInvalidToken.Error(), http.StatusUnauthorized)

			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 16*1024*1024))
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)

		return
	}

	var req coltracepb.ExportTraceServiceRequest
	if err := protojson.Unmarshal(body, &req); err != nil {
		http.Error(w, "decode otlp payload: "+err.Error(), http.StatusBadRequest)

		return
	}

	spans := resourceSpansToSpans(req.GetResourceSpans())
	h.buffer.append(spans)

	h.logger.Debug("otlp http spans received", slog.Int("count", len(spans)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{}`))
}

var _ readiness.Source = (*HTTPIngest)(nil)
