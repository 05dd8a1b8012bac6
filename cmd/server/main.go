package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"misinfo-guard/internal/config"
	"misinfo-guard/internal/crawler"
	"misinfo-guard/internal/extension"
	"misinfo-guard/internal/host"
	"misinfo-guard/internal/page"
	"misinfo-guard/internal/panel"
	"misinfo-guard/pkg/logger"
)

// analyzeTimeout bounds how long /analyze waits for a verdict.
var analyzeTimeout = 30 * time.Second

type scanReq struct {
	URL string `json:"url"`
}

type batchReq struct {
	URLs []string `json:"urls"`
}

type analyzeReq struct {
	Headline string `json:"headline"`
}

type analyzeResp struct {
	Panel         panel.View          `json:"panel"`
	Notifications []host.Notification `json:"notifications,omitempty"`
	Error         string              `json:"error,omitempty"`
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	configPath := flag.String("config", "", "config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		logger.New().Errorf("config: %v", err)
		os.Exit(1)
	}
	l := logger.NewLevel(cfg.Log.Level)
	defer func() { _ = l.Sync() }()

	ext, err := extension.New(cfg, l, false)
	if err != nil {
		l.Errorf("starting extension: %v", err)
		os.Exit(1)
	}
	defer ext.Close()

	fetcher := crawler.NewHTTPClient(15*time.Second, cfg.Classifier.DialTimeout, 5*1024*1024) // 5MB cap
	srv := &http.Server{
		Addr:         *addr,
		Handler:      logRequest(l, routes(ext, fetcher)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Infof("server listening on %s", *addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Infof("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Infof("bye")
}

func routes(ext *extension.Extension, fetcher extension.Fetcher) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// POST /scan  { "url": "https://..." }
	mux.HandleFunc("/scan", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		var req scanReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		rep := ext.ScanURL(ctx, fetcher, req.URL)
		if rep.Error != "" {
			writeJSON(w, http.StatusBadGateway, rep)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	})

	// POST /scan/batch  { "urls": ["https://...", "..."] }
	mux.HandleFunc("/scan/batch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		var req batchReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.URLs) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 50*time.Second)
		defer cancel()
		writeJSON(w, http.StatusOK, ext.ScanURLs(ctx, fetcher, req.URLs, 10))
	})

	// POST /analyze  { "headline": "..." }
	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		var req analyzeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Headline) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		tab := ext.Browser.OpenTab(page.Blank("about:blank"))
		defer tab.Close()

		ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
		defer cancel()
		ctx, notes := host.CollectNotifications(ctx)
		view, err := ext.Analyze(ctx, tab, req.Headline)
		resp := analyzeResp{Panel: view, Notifications: notes()}
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			resp.Error = err.Error()
			writeJSON(w, http.StatusGatewayTimeout, resp)
		case err != nil:
			resp.Error = err.Error()
			writeJSON(w, http.StatusBadGateway, resp)
		default:
			writeJSON(w, http.StatusOK, resp)
		}
	})

	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func logRequest(l *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		l.Infof("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
