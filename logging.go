package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"a11y-server/internal/aria"
	"a11y-server/internal/source"
)

type ctxKey int

const auditKey ctxKey = iota

// InitLogger installs the JSON logger as the default. Unknown levels fall
// back to info.
func InitLogger(levelStr string) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(newLogger(os.Stdout, level))
	slog.Info("logger initialized", "level", level.String())
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// audit is what one request did to a document. The analyze handler fills it
// in and the logging middleware writes it out once the response is sent.
type audit struct {
	requestID string
	version   aria.Version
	format    source.Format
	docBytes  int
	cache     string
}

func auditFrom(ctx context.Context) *audit {
	a, _ := ctx.Value(auditKey).(*audit)
	return a
}

// noteDocument records the document an analysis ran on.
func (a *audit) noteDocument(req analyzeRequest) {
	if a == nil {
		return
	}
	a.version = req.Version
	a.format = req.Format
	a.docBytes = len(req.Body)
}

func (a *audit) noteCache(hit bool) {
	if a == nil {
		return
	}
	a.cache = "miss"
	if hit {
		a.cache = "hit"
	}
}

func (a *audit) attrs() []any {
	out := []any{"request_id", a.requestID}
	if a.version != "" {
		out = append(out,
			"aria_version", string(a.version),
			"doc_format", string(a.format),
			"doc_bytes", a.docBytes,
		)
	}
	if a.cache != "" {
		out = append(out, "cache", a.cache)
	}
	return out
}

// LoggerFromContext returns the default logger tagged with the request id.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if a := auditFrom(ctx); a != nil {
		return slog.Default().With("request_id", a.requestID)
	}
	return slog.Default()
}

// RequestLoggingMiddleware assigns the request id and logs one line per
// request carrying the document attributes the handler noted.
func RequestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		a := &audit{requestID: r.Header.Get("X-Request-ID")}
		if _, err := uuid.Parse(a.requestID); err != nil {
			a.requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", a.requestID)
		r = r.WithContext(context.WithValue(r.Context(), auditKey, a))

		rw := &reportWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		attrs := append(a.attrs(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"report_bytes", rw.written,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		switch {
		case rw.status >= 500:
			httpErrorsTotal.Inc()
			slog.Error("request failed", attrs...)
		case rw.status >= 400:
			slog.Warn("request rejected", attrs...)
		default:
			slog.Debug("request served", attrs...)
		}
		httpRequestsTotal.WithLabelValues(strconv.Itoa(rw.status/100) + "xx").Inc()
	})
}

// reportWriter records the status and size of the response.
type reportWriter struct {
	http.ResponseWriter
	status  int
	written int
}

func (w *reportWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *reportWriter) Write(p []byte) (int, error) {
	n, err := w.ResponseWriter.Write(p)
	w.written += n
	return n, err
}
