package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"a11y-server/internal/aria"
	"a11y-server/internal/config"
	"a11y-server/internal/source"
	"a11y-server/internal/util"
)

// appConfig is the configuration the handlers run with; main sets it before
// serving.
var appConfig = config.DefaultServerConfig()

// analyzeHandler analyzes the request body and responds with the report.
//
//	POST /analyze?version=1.3&format=markdown&sanitize=true
func analyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		util.RespondMethodNotAllowed(w, "use POST with the document as the body")
		return
	}
	logger := LoggerFromContext(r.Context())

	req, err := parseAnalyzeRequest(r)
	if err != nil {
		util.RespondBadRequest(w, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, req.MaxBytes)
	req.Body, err = io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			util.RespondBadRequest(w, "document exceeds "+strconv.FormatInt(req.MaxBytes, 10)+" bytes")
			return
		}
		util.RespondBadRequest(w, "could not read request body")
		return
	}
	if len(req.Body) == 0 {
		util.RespondBadRequest(w, "empty document")
		return
	}

	trail := auditFrom(r.Context())
	trail.noteDocument(req)

	data, cached, err := analyzeOnce(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, source.ErrDocumentTooLarge), errors.Is(err, source.ErrUnsupportedFormat):
		util.RespondBadRequest(w, err.Error())
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Warn("analysis interrupted", "error", err)
		util.RespondServiceUnavailable(w, "analysis interrupted")
		return
	default:
		logger.Error("analysis failed", "error", err)
		util.RespondInternalError(w, "analysis failed")
		return
	}

	trail.noteCache(cached)
	if cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	util.SetJSONHeaders(w, "0")
	_ = util.WriteRawJSON(w, data)
}

func parseAnalyzeRequest(r *http.Request) (analyzeRequest, error) {
	q := r.URL.Query()
	req := analyzeRequest{
		Sanitize: appConfig.SanitizeHTML,
		MaxBytes: appConfig.MaxDocumentBytes,
	}

	version := q.Get("version")
	if version == "" {
		version = appConfig.ARIAVersion
	}
	v, err := aria.ParseVersion(version)
	if err != nil {
		return req, err
	}
	req.Version = v

	format := q.Get("format")
	if format == "" {
		format = formatFromContentType(r.Header.Get("Content-Type"))
	}
	if req.Format, err = source.ParseFormat(format); err != nil {
		return req, err
	}

	if s := q.Get("sanitize"); s != "" {
		if req.Sanitize, err = strconv.ParseBool(s); err != nil {
			return req, errors.New("sanitize must be true or false")
		}
	}
	return req, nil
}

func formatFromContentType(ct string) string {
	ct = strings.ToLower(ct)
	if strings.Contains(ct, "markdown") {
		return string(source.FormatMarkdown)
	}
	return string(source.FormatHTML)
}

// roleInfo describes one role for /roles.
type roleInfo struct {
	Role           string          `json:"role"`
	RoleType       []aria.RoleType `json:"roleType,omitempty"`
	NameRequired   bool            `json:"nameRequired,omitempty"`
	NameProhibited bool            `json:"nameProhibited,omitempty"`
	RequiredProps  []string        `json:"requiredProps,omitempty"`
}

// rolesHandler lists the roles known to an ARIA version.
//
//	GET /roles?version=1.3
func rolesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		util.RespondMethodNotAllowed(w, "use GET")
		return
	}
	version := r.URL.Query().Get("version")
	if version == "" {
		version = appConfig.ARIAVersion
	}
	v, err := aria.ParseVersion(version)
	if err != nil {
		util.RespondBadRequest(w, err.Error())
		return
	}
	tables, err := aria.Tables(v)
	if err != nil {
		util.RespondBadRequest(w, err.Error())
		return
	}

	roles := tables.Roles()
	out := make([]roleInfo, 0, len(roles))
	for _, role := range roles {
		p, ok := tables.Pattern(role)
		if !ok {
			continue
		}
		out = append(out, roleInfo{
			Role:           role,
			RoleType:       p.RoleType,
			NameRequired:   p.NameRequired,
			NameProhibited: p.NameProhibited,
			RequiredProps:  p.RequiredProps,
		})
	}
	util.SetJSONHeaders(w, "3600")
	_ = util.WriteJSON(w, http.StatusOK, map[string]any{
		"version": v,
		"roles":   out,
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	_ = util.WriteJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"cache_backend":  cacheBackendType,
		"aria_version":   appConfig.ARIAVersion,
		"uptime_seconds": int64(time.Since(serverStartTime).Seconds()),
	})
}
