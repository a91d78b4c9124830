package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"a11y-server/internal/analysis"
	"a11y-server/internal/aria"
	"a11y-server/internal/source"
)

// Singleflight group for deduplicating concurrent analyses.
// When several requests carry the same document at the same time,
// only one analyzes it while the others wait and share the result.
var analyzeGroup singleflight.Group

// analyzeRequest is one document to analyze.
type analyzeRequest struct {
	Version  aria.Version
	Format   source.Format
	Sanitize bool
	MaxBytes int64
	Body     []byte
}

// reportCacheKey digests everything that affects the report.
func reportCacheKey(req analyzeRequest) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(req.Version))
	h.Write([]byte{'|'})
	h.Write([]byte(req.Format))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.FormatBool(req.Sanitize)))
	h.Write([]byte{'|'})
	h.Write(req.Body)
	return hex.EncodeToString(h.Sum(nil))
}

// analyzeOnce returns the serialized report for req, from the cache when
// possible. cached reports whether the result came from the cache.
func analyzeOnce(ctx context.Context, req analyzeRequest) (data []byte, cached bool, err error) {
	key := reportCacheKey(req)

	// Check cache first (avoid singleflight overhead for cache hits)
	if data, ok := cachedReport(ctx, key); ok {
		return data, true, nil
	}

	// The shared analysis must not be cut short by the first caller leaving.
	result, err, shared := analyzeGroup.Do(key, func() (interface{}, error) {
		data, err := analyzeDirect(context.WithoutCancel(ctx), req)
		if err != nil {
			return nil, err
		}
		storeReport(ctx, key, data)
		return data, nil
	})
	if shared {
		sharedAnalyses.Inc()
		slog.Debug("singleflight: shared analysis", "key", key[:16])
	}
	if err != nil {
		return nil, false, err
	}
	return result.([]byte), false, nil
}

func analyzeDirect(ctx context.Context, req analyzeRequest) ([]byte, error) {
	start := time.Now()
	defer func() { analysisDuration.Observe(time.Since(start).Seconds()) }()

	doc, err := source.Load(ctx, bytes.NewReader(req.Body), source.Options{
		Format:   req.Format,
		Sanitize: req.Sanitize,
		MaxBytes: req.MaxBytes,
	})
	if err != nil {
		analysisErrors.WithLabelValues("load").Inc()
		return nil, err
	}

	engine, err := analysis.NewEngine(req.Version)
	if err != nil {
		analysisErrors.WithLabelValues("version").Inc()
		return nil, err
	}
	report, err := engine.Analyze(ctx, doc)
	if err != nil {
		analysisErrors.WithLabelValues("analyze").Inc()
		return nil, err
	}
	recordReport(report, string(req.Format))

	data, err := json.Marshal(report)
	if err != nil {
		analysisErrors.WithLabelValues("encode").Inc()
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return data, nil
}
