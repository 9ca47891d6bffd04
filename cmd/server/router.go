package main

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/JuanManuel1970/dolar/internal/dashboard"
	"github.com/JuanManuel1970/dolar/internal/rates"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type dashboardResponse struct {
	dashboard.State
	TimeAgo string `json:"time_ago"`
}

type typeOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type metaResponse struct {
	Types  []typeOption `json:"types"`
	Ranges []int        `json:"ranges"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newRouter(ctrl *dashboard.Controller, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID())
	r.Use(accessLog(log))
	r.Use(recoverer(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/api/meta", handleMeta)
	r.Get("/api/dashboard", handleDashboard(ctrl))

	return withJSONHeaders(withGzip(r))
}

func handleMeta(w http.ResponseWriter, _ *http.Request) {
	resp := metaResponse{Ranges: rates.RangeOptions}
	for _, t := range rates.Types {
		resp.Types = append(resp.Types, typeOption{Value: string(t), Label: dashboard.TypeLabel(t)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDashboard applies the requested selection to the shared controller,
// runs a fetch cycle and returns the resulting view state. A transport
// failure maps to 502 with the cleared state in the body, exactly what the
// front-end renders.
func handleDashboard(ctrl *dashboard.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := ctrl.State()
		t, days := st.Type, st.RangeDays

		q := r.URL.Query()
		if v := q.Get("type"); v != "" {
			var err error
			if t, err = rates.ParseType(v); err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}
		}
		if v := q.Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || !rates.ValidRange(n) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "days must be one of 7, 30, 60, 90"})
				return
			}
			days = n
		}

		err := ctrl.Select(r.Context(), t, days)
		st = ctrl.State()
		resp := dashboardResponse{State: st, TimeAgo: dashboard.TimeAgo(st.LastUpdate, time.Now())}
		if err != nil {
			writeJSON(w, http.StatusBadGateway, resp)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func requestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := r.Header.Get("X-Request-ID")
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", rid)
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func accessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sr, r)
			log.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sr.status),
				zap.String("request_id", w.Header().Get("X-Request-ID")),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func recoverer(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered", zap.Any("error", rec))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		// Basic CORS for browser usage.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withGzip compresses the response when the client supports gzip.
func withGzip(next http.Handler) http.Handler {
	var gzPool = sync.Pool{New: func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	}}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		next.ServeHTTP(gzipResponseWriter{ResponseWriter: w, Writer: gz}, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) { return g.Writer.Write(b) }
